// Package tabular provides a typed in-memory table used for uploaded
// result files, indirection side tables and plate metadata files.
//
// Tables carry named columns with one of three kinds (string, numeric,
// date). Cells are looked up by header name, case-insensitively, the way
// spreadsheet-derived data usually arrives.
package tabular

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the declared type of a column.
type Kind int

const (
	String Kind = iota
	Numeric
	Date
)

// String implements fmt.Stringer for diagnostics.
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Date:
		return "date"
	default:
		return "string"
	}
}

// Column describes one named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Row is one record; values are indexed positionally, aligned with the
// table's columns. A nil value means the cell is blank.
type Row []any

// Table is an ordered collection of rows under a header.
type Table struct {
	Columns []Column
	Rows    []Row

	// byName caches lower-cased header name to column index.
	byName map[string]int
}

// New creates an empty table with the given columns.
func New(cols ...Column) *Table {
	t := &Table{Columns: cols}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.byName = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.byName[strings.ToLower(c.Name)] = i
	}
}

// ColumnIndex returns the positional index of a column by name,
// case-insensitively. The second value is false if the column does not
// exist.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t.byName == nil {
		t.reindex()
	}
	i, ok := t.byName[strings.ToLower(name)]
	return i, ok
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Append adds a row. Short rows are padded with nils so positional
// access stays safe.
func (t *Table) Append(row Row) {
	for len(row) < len(t.Columns) {
		row = append(row, nil)
	}
	t.Rows = append(t.Rows, row)
}

// Cell returns the raw value at (row, column-name). Returns nil if the
// column does not exist or the cell is blank.
func (t *Table) Cell(row int, name string) any {
	i, ok := t.ColumnIndex(name)
	if !ok || row < 0 || row >= len(t.Rows) {
		return nil
	}
	r := t.Rows[row]
	if i >= len(r) {
		return nil
	}
	return r[i]
}

// CellString returns the cell as a trimmed string. Blank cells and
// missing columns yield "".
func (t *Table) CellString(row int, name string) string {
	return AsString(t.Cell(row, name))
}

// CellFloat returns the cell as a float64. The second value is false
// when the cell is blank or not parsable as a number.
func (t *Table) CellFloat(row int, name string) (float64, bool) {
	return AsFloat(t.Cell(row, name))
}

// CellDate returns the cell as a time.Time. The second value is false
// when the cell is blank or not parsable as a date.
func (t *Table) CellDate(row int, name string) (time.Time, bool) {
	return AsDate(t.Cell(row, name))
}

// AsString converts a raw cell value to a trimmed string.
func AsString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(DateFormat)
	default:
		return ""
	}
}

// AsFloat converts a raw cell value to a float64.
func AsFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// DateFormat is the canonical textual date format for tabular data.
const DateFormat = "2006-01-02"

// dateLayouts are tried in order when parsing textual dates.
var dateLayouts = []string{
	DateFormat,
	"2006-01-02 15:04:05",
	"01/02/2006",
	time.RFC3339,
}

// AsDate converts a raw cell value to a time.Time.
func AsDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
