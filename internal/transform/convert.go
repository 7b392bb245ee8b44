package transform

// convert.go turns raw CSV cells into typed store values.
//
// Every To* function returns a pgtype value with Valid=false for empty or
// unparseable input, which the loader binds as NULL. pgtype values implement
// driver.Valuer, so the same cleaned rows bind on SQLite and PostgreSQL.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"20060102",
}

// CleanCell trims whitespace, an Excel formula prefix (="...") and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// ToPgText converts a cell to pgtype.Text. Empty cells are NULL.
func ToPgText(s string) pgtype.Text {
	s = CleanCell(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgInt8 converts a cell to pgtype.Int8. Whole floats such as "1610612737.0"
// are accepted; fractional values are NULL.
func ToPgInt8(s string) pgtype.Int8 {
	n, ok, _ := parseInt(s)
	if !ok {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: n, Valid: true}
}

// ToPgFloat8 converts a cell to pgtype.Float8. Thousands separators are removed.
func ToPgFloat8(s string) pgtype.Float8 {
	s = strings.ReplaceAll(CleanCell(s), ",", "")
	if s == "" {
		return pgtype.Float8{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// ToPgDate converts a cell to pgtype.Date, trying ISO first.
func ToPgDate(s string) pgtype.Date {
	s = CleanCell(s)
	if s == "" {
		return pgtype.Date{}
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.Date()
			return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
		}
	}
	return pgtype.Date{}
}

// parseInt reports (value, present, err). An empty cell is not present and
// not an error; a non-empty cell that is not a whole number is an error.
func parseInt(s string) (int64, bool, error) {
	s = CleanCell(s)
	if s == "" {
		return 0, false, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false, fmt.Errorf("%q is not a whole number", s)
	}
	return int64(f), true, nil
}

// intKey parses a required integer key. Empty cells report ok=false.
func intKey(s string) (pgtype.Int8, bool, error) {
	n, ok, err := parseInt(s)
	if err != nil || !ok {
		return pgtype.Int8{}, false, err
	}
	return pgtype.Int8{Int64: n, Valid: true}, true, nil
}

// PlayerKey normalizes a player id to its canonical text form so ids read
// as "203932" and "203932.0" reference the same player.
// Non-numeric ids are kept verbatim.
func PlayerKey(s string) pgtype.Text {
	n, ok, err := parseInt(s)
	switch {
	case err != nil:
		return ToPgText(s)
	case !ok:
		return pgtype.Text{}
	}
	return pgtype.Text{String: strconv.FormatInt(n, 10), Valid: true}
}
