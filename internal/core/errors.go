package core

import (
	"errors"
	"fmt"
)

// Kind classifies a run failure. Every failure is fatal; the kind decides the
// console message and the process exit code.
type Kind int

const (
	KindInternal Kind = iota
	KindUsage
	KindExtraction
	KindTransform
	KindStoreInit
	KindSchemaMismatch
	KindConstraint
	KindLoad
)

// String returns the name used in logs.
func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "UsageError"
	case KindExtraction:
		return "ExtractionError"
	case KindTransform:
		return "TransformError"
	case KindStoreInit:
		return "StoreInitializationError"
	case KindSchemaMismatch:
		return "SchemaMismatchError"
	case KindConstraint:
		return "ConstraintViolation"
	case KindLoad:
		return "LoadError"
	default:
		return "InternalError"
	}
}

// ExitCode returns the process exit status for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindUsage:
		return 2
	case KindExtraction:
		return 3
	case KindTransform:
		return 4
	case KindStoreInit:
		return 5
	case KindSchemaMismatch:
		return 6
	case KindConstraint:
		return 7
	case KindLoad:
		return 8
	default:
		return 1
	}
}

// Error is a classified failure raised by one of the run stages.
//
//	err := core.Errorf(core.KindExtraction, "open archive", "%w", zipErr)
//
//	var e *core.Error
//	if errors.As(err, &e) && e.Kind == core.KindExtraction { ... }
type Error struct {
	Kind  Kind
	Op    string // stage or operation that failed, e.g. "load statistics"
	Table string // logical table, when the failure is table-scoped
	Err   error
}

func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Op != "" {
		prefix += ": " + e.Op
	}
	if e.Table != "" {
		prefix += " [" + e.Table + "]"
	}
	if e.Err == nil {
		return prefix
	}
	return prefix + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with a kind and operation name. Returns nil if err is nil.
// An err that is already a *Error keeps its original kind.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// TableErrorf builds a classified error scoped to one table.
func TableErrorf(kind Kind, table, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Table: table, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps err to a process exit status. nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
