// Package store creates and opens the relational statistics store.
//
// SQLite (modernc.org/sqlite, pure Go) is the default engine; the PostgreSQL
// dialect goes through pgx's database/sql driver. Either way callers get a
// *Store wrapping a *sql.DB plus the dialect needed to build statements.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/logging"
	"github.com/JonMunkholm/hoopsdb/internal/schema"
)

// DefaultSuffix is appended to SQLite store paths that lack it.
const DefaultSuffix = ".db"

// ErrExists is returned by Materialize when the target store already exists.
var ErrExists = errors.New("store already exists")

// Options locates and configures a store.
type Options struct {
	Dialect schema.Dialect

	// Location is a file path for SQLite or a connection string for PostgreSQL.
	Location string

	// Suffix is appended to SQLite paths that do not end with it.
	// Empty means DefaultSuffix.
	Suffix string

	// DisableForeignKeys turns off SQLite foreign-key enforcement, which is
	// on by default. PostgreSQL always enforces them.
	DisableForeignKeys bool

	// ReadOnly opens SQLite stores in read-only mode.
	ReadOnly bool
}

func (o Options) dialect() schema.Dialect {
	if o.Dialect.Name == "" {
		return schema.SQLite
	}
	return o.Dialect
}

func (o Options) suffix() string {
	if o.Suffix == "" {
		return DefaultSuffix
	}
	return o.Suffix
}

// Store is an open statistics store.
type Store struct {
	db       *sql.DB
	dialect  schema.Dialect
	schema   schema.Schema
	location string
}

// NormalizeLocation appends suffix to path unless it already ends with it.
func NormalizeLocation(path, suffix string) string {
	if suffix == "" || strings.HasSuffix(path, suffix) {
		return path
	}
	return path + suffix
}

// NormalizedLocation returns the SQLite path with its suffix applied, or the
// PostgreSQL DSN unchanged.
func (o Options) NormalizedLocation() string {
	if o.dialect().IsPostgres() {
		return o.Location
	}
	return NormalizeLocation(o.Location, o.suffix())
}

func sqliteDSN(path string, foreignKeys, readOnly bool) string {
	params := []string{"_pragma=busy_timeout(5000)"}
	if foreignKeys {
		params = append(params, "_pragma=foreign_keys(1)")
	} else {
		params = append(params, "_pragma=foreign_keys(0)")
	}
	if readOnly {
		params = append(params, "mode=ro")
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

// Materialize creates a new store at the options' location and creates every
// entity of s in it. It fails with a StoreInitializationError if the store
// already exists, the location cannot be written or the DDL fails. Nothing is
// left behind on failure.
func Materialize(ctx context.Context, opts Options, s schema.Schema) (*Store, error) {
	const op = "materialize store"
	d := opts.dialect()
	loc := opts.NormalizedLocation()

	if err := s.Validate(); err != nil {
		return nil, core.E(core.KindStoreInit, op, err)
	}
	ddl, err := s.DDL(d)
	if err != nil {
		return nil, core.E(core.KindStoreInit, op, err)
	}

	var created bool
	if !d.IsPostgres() {
		if _, err := os.Stat(loc); err == nil {
			return nil, core.E(core.KindStoreInit, op, fmt.Errorf("%s: %w", loc, ErrExists))
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, core.E(core.KindStoreInit, op, err)
		}
		if dir := filepath.Dir(loc); dir != "" {
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return nil, core.Errorf(core.KindStoreInit, op, "directory %s does not exist", dir)
			}
		}
		created = true
	}

	db, err := open(ctx, d, loc, !opts.DisableForeignKeys, false)
	if err != nil {
		cleanupSQLite(loc, created)
		return nil, core.E(core.KindStoreInit, op, err)
	}
	st := &Store{db: db, dialect: d, schema: s, location: loc}

	fail := func(err error) (*Store, error) {
		db.Close()
		cleanupSQLite(loc, created)
		return nil, core.E(core.KindStoreInit, op, err)
	}

	if d.IsPostgres() {
		existing, err := st.existingTables(ctx)
		if err != nil {
			return fail(err)
		}
		if len(existing) > 0 {
			return fail(fmt.Errorf("tables %s: %w", strings.Join(existing, ", "), ErrExists))
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fail(err)
	}
	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fail(fmt.Errorf("create schema: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("commit schema: %w", err))
	}

	logging.FromContext(ctx).Info("store created",
		"dialect", d.Name, "location", redact(d, loc), "tables", len(s.Entities))
	return st, nil
}

// Open opens an existing store. SQLite stores must already exist on disk.
func Open(ctx context.Context, opts Options, s schema.Schema) (*Store, error) {
	const op = "open store"
	d := opts.dialect()
	loc := opts.NormalizedLocation()

	if !d.IsPostgres() {
		if _, err := os.Stat(loc); err != nil {
			return nil, core.E(core.KindStoreInit, op, err)
		}
	}
	db, err := open(ctx, d, loc, !opts.DisableForeignKeys, opts.ReadOnly)
	if err != nil {
		return nil, core.E(core.KindStoreInit, op, err)
	}
	return &Store{db: db, dialect: d, schema: s, location: loc}, nil
}

func open(ctx context.Context, d schema.Dialect, loc string, foreignKeys, readOnly bool) (*sql.DB, error) {
	dsn := loc
	if !d.IsPostgres() {
		dsn = sqliteDSN(loc, foreignKeys, readOnly)
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	if !d.IsPostgres() {
		// One writer; the pragmas are per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", d.Name, err)
	}
	return db, nil
}

func (s *Store) existingTables(ctx context.Context) ([]string, error) {
	names := s.schema.TableNames()
	marks := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		marks[i] = "?"
		args[i] = n
	}
	q := s.Rebind(`SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name IN (` + strings.Join(marks, ", ") + `)
		ORDER BY table_name`)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		found = append(found, n)
	}
	return found, rows.Err()
}

func cleanupSQLite(path string, created bool) {
	if !created {
		return
	}
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}

// redact hides credentials in PostgreSQL connection strings.
func redact(d schema.Dialect, loc string) string {
	if !d.IsPostgres() {
		return loc
	}
	if i := strings.Index(loc, "@"); i >= 0 {
		if j := strings.Index(loc, "://"); j >= 0 && j < i {
			return loc[:j+3] + "***" + loc[i:]
		}
	}
	return loc
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() schema.Dialect {
	return s.dialect
}

// Schema returns the schema the store was created or opened with.
func (s *Store) Schema() schema.Schema {
	return s.schema
}

// Location returns the normalized path or DSN.
func (s *Store) Location() string {
	return s.location
}

// String returns the location with any credentials hidden.
func (s *Store) String() string {
	return redact(s.dialect, s.location)
}

// Rebind rewrites ? placeholders for the store's dialect.
func (s *Store) Rebind(query string) string {
	return s.dialect.Rebind(query)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
