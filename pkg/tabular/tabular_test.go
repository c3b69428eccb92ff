package tabular_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/assaydb/pkg/tabular"
)

func newTable() *tabular.Table {
	t := tabular.New(
		tabular.Column{Name: "SpecimenID", Kind: tabular.String},
		tabular.Column{Name: "VisitID", Kind: tabular.Numeric},
		tabular.Column{Name: "Date", Kind: tabular.Date},
	)
	t.Append(tabular.Row{"SP-1", 2.0, "2024-03-01"})
	t.Append(tabular.Row{" SP-2 ", "3.5", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)})
	t.Append(tabular.Row{"SP-3"})
	return t
}

func TestColumnIndex(t *testing.T) {
	tbl := newTable()

	tests := []struct {
		msg   string
		name  string
		index int
		ok    bool
	}{
		{msg: "exact name", name: "SpecimenID", index: 0, ok: true},
		{msg: "case insensitive", name: "specimenid", index: 0, ok: true},
		{msg: "upper case", name: "DATE", index: 2, ok: true},
		{msg: "missing column", name: "Nope", index: 0, ok: false},
	}

	for _, v := range tests {
		i, ok := tbl.ColumnIndex(v.name)
		assert.Equal(t, v.ok, ok, v.msg)
		if v.ok {
			assert.Equal(t, v.index, i, v.msg)
		}
	}
}

func TestAppendPadsShortRows(t *testing.T) {
	tbl := newTable()

	// Third row was appended with one cell only.
	require.Len(t, tbl.Rows[2], 3)
	assert.Nil(t, tbl.Cell(2, "VisitID"))
	assert.Nil(t, tbl.Cell(2, "Date"))
}

func TestCellString(t *testing.T) {
	tbl := newTable()

	tests := []struct {
		msg string
		row int
		col string
		res string
	}{
		{msg: "plain string", row: 0, col: "SpecimenID", res: "SP-1"},
		{msg: "trims whitespace", row: 1, col: "SpecimenID", res: "SP-2"},
		{msg: "float renders without exponent", row: 0, col: "VisitID", res: "2"},
		{msg: "date renders canonical", row: 1, col: "Date", res: "2024-03-02"},
		{msg: "blank cell", row: 2, col: "Date", res: ""},
		{msg: "missing column", row: 0, col: "Nope", res: ""},
		{msg: "row out of range", row: 9, col: "SpecimenID", res: ""},
	}

	for _, v := range tests {
		assert.Equal(t, v.res, tbl.CellString(v.row, v.col), v.msg)
	}
}

func TestCellFloat(t *testing.T) {
	tbl := newTable()

	tests := []struct {
		msg string
		row int
		res float64
		ok  bool
	}{
		{msg: "native float", row: 0, res: 2.0, ok: true},
		{msg: "numeric string", row: 1, res: 3.5, ok: true},
		{msg: "blank cell", row: 2, ok: false},
	}

	for _, v := range tests {
		f, ok := tbl.CellFloat(v.row, "VisitID")
		assert.Equal(t, v.ok, ok, v.msg)
		if v.ok {
			assert.InDelta(t, v.res, f, 1e-9, v.msg)
		}
	}
}

func TestAsDate(t *testing.T) {
	tests := []struct {
		msg string
		val any
		res string
		ok  bool
	}{
		{msg: "canonical", val: "2024-03-01", res: "2024-03-01", ok: true},
		{msg: "with time", val: "2024-03-01 13:30:00", res: "2024-03-01", ok: true},
		{msg: "us style", val: "03/01/2024", res: "2024-03-01", ok: true},
		{
			msg: "native time",
			val: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			res: "2024-03-01",
			ok:  true,
		},
		{msg: "garbage", val: "not a date", ok: false},
		{msg: "blank", val: "  ", ok: false},
		{msg: "nil", val: nil, ok: false},
	}

	for _, v := range tests {
		d, ok := tabular.AsDate(v.val)
		assert.Equal(t, v.ok, ok, v.msg)
		if v.ok {
			assert.Equal(t, v.res, d.Format(tabular.DateFormat), v.msg)
		}
	}
}
