package transform

import (
	"testing"
	"time"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Hawks ", "Hawks"},
		{`="00123"`, "00123"},
		{"=42", "42"},
		{`"quoted"`, "quoted"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToPgInt8(t *testing.T) {
	tests := []struct {
		in    string
		want  int64
		valid bool
	}{
		{"1610612737", 1610612737, true},
		{"1610612737.0", 1610612737, true},
		{" 22019 ", 22019, true},
		{"-3", -3, true},
		{"", 0, false},
		{"12.5", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ToPgInt8(tt.in)
			if got.Valid != tt.valid || got.Int64 != tt.want {
				t.Errorf("ToPgInt8(%q) = %+v, want %d valid=%v", tt.in, got, tt.want, tt.valid)
			}
		})
	}
}

func TestToPgFloat8(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"0.455", 0.455, true},
		{"18,729", 18729, true},
		{"-4.0", -4, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ToPgFloat8(tt.in)
			if got.Valid != tt.valid || got.Float64 != tt.want {
				t.Errorf("ToPgFloat8(%q) = %+v, want %v valid=%v", tt.in, got, tt.want, tt.valid)
			}
		})
	}
}

func TestToPgDate(t *testing.T) {
	want := time.Date(2022, 12, 22, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2022-12-22", "2022-12-22 00:00:00", "12/22/2022", "20221222", "Dec 22, 2022"} {
		got := ToPgDate(in)
		if !got.Valid || !got.Time.Equal(want) {
			t.Errorf("ToPgDate(%q) = %+v, want %v", in, got, want)
		}
	}
	if ToPgDate("").Valid || ToPgDate("yesterday").Valid {
		t.Error("ToPgDate should reject empty and unparseable input")
	}
}

func TestToPgText(t *testing.T) {
	if got := ToPgText("  "); got.Valid {
		t.Errorf("ToPgText(blank) = %+v, want NULL", got)
	}
	if got := ToPgText(" Lloyd Pierce "); got.String != "Lloyd Pierce" || !got.Valid {
		t.Errorf("ToPgText() = %+v", got)
	}
}

func TestPlayerKey(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"203932", "203932", true},
		{"203932.0", "203932", true},
		{"p-1", "p-1", true},
		{"", "", false},
	}
	for _, tt := range tests {
		got := PlayerKey(tt.in)
		if got.Valid != tt.valid || got.String != tt.want {
			t.Errorf("PlayerKey(%q) = %+v, want %q valid=%v", tt.in, got, tt.want, tt.valid)
		}
	}
}
