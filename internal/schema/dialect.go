package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect renders the schema and insert statements for one SQL engine.
type Dialect struct {
	Name   string
	Driver string // database/sql driver name

	// MaxVariables is the largest number of bind parameters one statement may carry.
	MaxVariables int

	// SurrogateKey is the full column definition for store-generated keys.
	SurrogateKey string

	numberedPlaceholders bool
}

var (
	SQLite = Dialect{
		Name:         "sqlite",
		Driver:       "sqlite",
		MaxVariables: 32766,
		SurrogateKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
	}

	Postgres = Dialect{
		Name:                 "postgres",
		Driver:               "pgx",
		MaxVariables:         65535,
		SurrogateKey:         "SERIAL PRIMARY KEY",
		numberedPlaceholders: true,
	}
)

// DialectByName resolves a configured dialect name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unknown store dialect %q", name)
	}
}

// IsPostgres reports whether d targets PostgreSQL.
func (d Dialect) IsPostgres() bool {
	return d.numberedPlaceholders
}

// ColumnType renders the SQL type of c.
func (d Dialect) ColumnType(c Column) string {
	switch c.Type {
	case Integer:
		if d.IsPostgres() {
			return "BIGINT"
		}
		return "INTEGER"
	case Float:
		if d.IsPostgres() {
			return "DOUBLE PRECISION"
		}
		return "FLOAT"
	case Date:
		return "DATE"
	default:
		if c.Size > 0 {
			return "VARCHAR(" + strconv.Itoa(c.Size) + ")"
		}
		return "VARCHAR"
	}
}

// Placeholder returns the bind marker for the n-th parameter, 1-based.
func (d Dialect) Placeholder(n int) string {
	if d.numberedPlaceholders {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites ? markers in query into the dialect's placeholder style.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if !d.numberedPlaceholders {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Literal renders a default value as SQL.
func (d Dialect) Literal(v any) string {
	switch x := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}

// MaxRowsPerStatement returns how many rows of width columns fit in one
// multi-row INSERT.
func (d Dialect) MaxRowsPerStatement(width int) int {
	if width <= 0 {
		return 0
	}
	return d.MaxVariables / width
}
