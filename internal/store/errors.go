package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JonMunkholm/hoopsdb/internal/core"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// IsConstraint reports whether err is a key, uniqueness, NOT NULL or check
// violation raised by either driver.
func IsConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		// SQLSTATE class 23: integrity constraint violation.
		return strings.HasPrefix(pe.Code, "23")
	}
	return false
}

// Classify wraps a write error for table: constraint violations become
// ConstraintViolation, everything else gets fallback.
func Classify(fallback core.Kind, table, op string, err error) error {
	if err == nil {
		return nil
	}
	kind := fallback
	if IsConstraint(err) {
		kind = core.KindConstraint
	}
	return &core.Error{Kind: kind, Op: op, Table: table, Err: err}
}
