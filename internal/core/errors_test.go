package core

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil is success", nil, 0},
		{"unclassified is internal", errors.New("boom"), 1},
		{"usage", Errorf(KindUsage, "validate", "bad"), 2},
		{"extraction", Errorf(KindExtraction, "extract", "bad"), 3},
		{"transform", Errorf(KindTransform, "transform", "bad"), 4},
		{"store init", Errorf(KindStoreInit, "materialize", "bad"), 5},
		{"schema mismatch", Errorf(KindSchemaMismatch, "validate", "bad"), 6},
		{"constraint", Errorf(KindConstraint, "insert", "bad"), 7},
		{"load", Errorf(KindLoad, "insert", "bad"), 8},
		{"wrapped keeps code", fmt.Errorf("outer: %w", Errorf(KindExtraction, "extract", "bad")), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestE(t *testing.T) {
	if E(KindLoad, "op", nil) != nil {
		t.Fatal("E(nil) should be nil")
	}

	err := E(KindExtraction, "read entry", io.ErrUnexpectedEOF)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("E() should unwrap to the cause")
	}
	if KindOf(err) != KindExtraction {
		t.Errorf("KindOf() = %s, want %s", KindOf(err), KindExtraction)
	}

	// Already classified errors keep their kind.
	inner := Errorf(KindConstraint, "insert", "dup")
	if got := KindOf(E(KindLoad, "load", inner)); got != KindConstraint {
		t.Errorf("KindOf(E(classified)) = %s, want %s", got, KindConstraint)
	}
}

func TestErrorString(t *testing.T) {
	err := TableErrorf(KindSchemaMismatch, "team", "validate columns", "missing column %q", "arena")
	want := `SchemaMismatchError: validate columns [team]: missing column "arena"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
