// Package load writes cleaned tables into the store in foreign-key order.
package load

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/dataset"
	"github.com/JonMunkholm/hoopsdb/internal/logging"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
	"github.com/JonMunkholm/hoopsdb/internal/store"
)

// DefaultBatchSize is the number of rows per multi-row INSERT.
const DefaultBatchSize = 20

// Options tunes the loader.
type Options struct {
	// BatchSize is the number of rows per INSERT statement. It is capped by
	// the dialect's bind-variable limit. Zero means DefaultBatchSize.
	BatchSize int
}

// Loader writes datasets described by a schema.
type Loader struct {
	schema    schema.Schema
	batchSize int
}

// New returns a loader for s.
func New(s schema.Schema, opts Options) *Loader {
	bs := opts.BatchSize
	if bs <= 0 {
		bs = DefaultBatchSize
	}
	return &Loader{schema: s, batchSize: bs}
}

// TableReport describes one written table.
type TableReport struct {
	Table      string        `json:"table"`
	Rows       int           `json:"rows"`
	Statements int           `json:"statements"`
	Duration   time.Duration `json:"duration"`
}

// Report summarizes a load.
type Report struct {
	Tables  []TableReport `json:"tables"`
	Skipped []string      `json:"skipped,omitempty"`
}

// Rows returns the total number of rows written.
func (r Report) Rows() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Rows
	}
	return n
}

// Load validates every dataset, then writes them parent tables first. Each
// table is written in its own transaction; a failure rolls back that table
// only, stops the load and leaves earlier tables committed. Tables of the
// schema missing from data are skipped.
//
// Validation failures are SchemaMismatchErrors and happen before any write.
// Constraint failures are ConstraintViolations; other write failures are
// LoadErrors. The returned report covers the tables committed so far.
func (l *Loader) Load(ctx context.Context, st *store.Store, data map[string]dataset.Table) (Report, error) {
	var report Report

	order, err := l.schema.LoadOrder()
	if err != nil {
		return report, core.E(core.KindSchemaMismatch, "load order", err)
	}
	if err := l.Validate(data); err != nil {
		return report, err
	}

	logger := logging.FromContext(ctx)
	for _, name := range order {
		tbl, ok := data[name]
		if !ok {
			report.Skipped = append(report.Skipped, name)
			logger.Debug("table skipped", "table", name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, core.E(core.KindLoad, "load "+name, err)
		}

		entity, _ := l.schema.Entity(name)
		tr, err := l.writeTable(ctx, st, entity, tbl)
		if err != nil {
			logger.Error("table load failed", "table", name, "error", err)
			return report, err
		}
		report.Tables = append(report.Tables, tr)
		logger.Info("table loaded", "table", name, "rows", tr.Rows,
			"statements", tr.Statements, "duration", tr.Duration)
	}
	return report, nil
}

// Validate checks datasets against the schema without touching the store.
func (l *Loader) Validate(data map[string]dataset.Table) error {
	const op = "validate"

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tbl := data[name]
		entity, ok := l.schema.Entity(name)
		if !ok {
			return core.TableErrorf(core.KindSchemaMismatch, name, op, "unknown table")
		}

		seen := make(map[string]bool, len(tbl.Columns))
		for _, c := range tbl.Columns {
			col, ok := entity.Column(c)
			switch {
			case !ok:
				return core.TableErrorf(core.KindSchemaMismatch, name, op, "extra column %q", c)
			case col.AutoIncrement:
				return core.TableErrorf(core.KindSchemaMismatch, name, op, "column %q is generated by the store", c)
			case seen[c]:
				return core.TableErrorf(core.KindSchemaMismatch, name, op, "duplicate column %q", c)
			}
			seen[c] = true
		}

		for _, c := range entity.RequiredColumns() {
			if !seen[c] {
				return core.TableErrorf(core.KindSchemaMismatch, name, op, "missing column %q", c)
			}
		}

		for i, row := range tbl.Rows {
			if len(row) != len(tbl.Columns) {
				return core.TableErrorf(core.KindSchemaMismatch, name, op,
					"row %d has %d values, want %d", i, len(row), len(tbl.Columns))
			}
		}
	}
	return nil
}

func (l *Loader) writeTable(ctx context.Context, st *store.Store, entity schema.Entity, tbl dataset.Table) (TableReport, error) {
	start := time.Now()
	tr := TableReport{Table: entity.Name}
	if len(tbl.Rows) == 0 {
		return tr, nil
	}

	d := st.Dialect()
	cols := make([]schema.Column, len(tbl.Columns))
	for i, c := range tbl.Columns {
		cols[i], _ = entity.Column(c)
	}

	perStmt := l.batchSize
	if limit := d.MaxRowsPerStatement(len(cols)); perStmt > limit {
		perStmt = limit
	}

	tx, err := st.DB().BeginTx(ctx, nil)
	if err != nil {
		return tr, store.Classify(core.KindLoad, entity.Name, "begin", err)
	}

	full := insertSQL(d, entity.Name, tbl.Columns, perStmt)
	args := make([]any, 0, perStmt*len(cols))

	for lo := 0; lo < len(tbl.Rows); lo += perStmt {
		hi := lo + perStmt
		if hi > len(tbl.Rows) {
			hi = len(tbl.Rows)
		}

		args = args[:0]
		for i := lo; i < hi; i++ {
			for j, v := range tbl.Rows[i] {
				bound, err := bind(d, cols[j], v)
				if err != nil {
					tx.Rollback()
					return tr, core.TableErrorf(core.KindLoad, entity.Name, "bind",
						"row %d column %q: %v", i, cols[j].Name, err)
				}
				args = append(args, bound)
			}
		}

		q := full
		if hi-lo != perStmt {
			q = insertSQL(d, entity.Name, tbl.Columns, hi-lo)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			tx.Rollback()
			return tr, store.Classify(core.KindLoad, entity.Name,
				fmt.Sprintf("insert rows %d-%d", lo, hi-1), err)
		}
		tr.Statements++
	}

	if err := tx.Commit(); err != nil {
		return tr, store.Classify(core.KindLoad, entity.Name, "commit", err)
	}
	tr.Rows = len(tbl.Rows)
	tr.Duration = time.Since(start)
	return tr, nil
}

// insertSQL renders a multi-row INSERT for n rows.
func insertSQL(d schema.Dialect, table string, columns []string, n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES ")

	p := 1
	for r := 0; r < n; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(p))
			p++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// bind resolves v to a driver value for col. NULLs in defaulted columns take
// the declared default; SQLite dates are written as YYYY-MM-DD text.
func bind(d schema.Dialect, col schema.Column, v any) (any, error) {
	if valuer, ok := v.(driver.Valuer); ok {
		var err error
		if v, err = valuer.Value(); err != nil {
			return nil, err
		}
	}
	if v == nil {
		if col.HasDefault() {
			return col.Default, nil
		}
		return nil, nil
	}
	if t, ok := v.(time.Time); ok && col.Type == schema.Date && !d.IsPostgres() {
		return t.Format(time.DateOnly), nil
	}
	return v, nil
}
