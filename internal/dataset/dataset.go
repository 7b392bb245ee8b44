// Package dataset holds the in-memory tables that flow between the extract,
// transform and load stages.
//
// A [Raw] is a CSV file as read from the archive: a header and string records.
// A [Table] is a cleaned dataset whose columns are store column names and whose
// cells are typed values ready to bind to SQL parameters.
package dataset

import "strings"

// Raw is an uncleaned tabular dataset keyed by the logical table it feeds.
type Raw struct {
	Name    string
	Source  string // file the records were read from
	Header  []string
	Records [][]string
}

// Len returns the number of data records.
func (r Raw) Len() int {
	return len(r.Records)
}

// HeaderIndex maps normalized header names to their column position.
// Names are upper-cased and trimmed; the first occurrence wins.
func (r Raw) HeaderIndex() map[string]int {
	idx := make(map[string]int, len(r.Header))
	for i, h := range r.Header {
		key := NormalizeHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// NormalizeHeader returns the lookup form of a CSV header cell.
func NormalizeHeader(h string) string {
	return strings.ToUpper(strings.TrimSpace(h))
}

// Table is a cleaned dataset. Columns name store columns; each row holds one
// value per column. A nil cell is stored as NULL.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// NewTable returns an empty table with the given columns.
func NewTable(name string, columns ...string) Table {
	return Table{Name: name, Columns: columns}
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of column, or -1.
func (t Table) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Append adds a row. The caller keeps values aligned with Columns.
func (t *Table) Append(values ...any) {
	t.Rows = append(t.Rows, values)
}
