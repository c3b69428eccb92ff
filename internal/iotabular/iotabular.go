// Package iotabular reads uploaded tabular files (TSV, CSV, XLSX) into
// pkg/tabular tables. This is an impure I/O package.
package iotabular

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/assaykit/assaydb/pkg/designs"
	"github.com/assaykit/assaydb/pkg/tabular"
	"github.com/xuri/excelize/v2"
)

// ReadFile parses a tabular file into a table. The format is chosen by
// file extension: .tsv/.txt (tab), .csv (comma), .xlsx (Excel). Column
// kinds are taken from matching field definitions; unmatched columns
// default to string.
func ReadFile(path string, fields []designs.Field) (*tabular.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx":
		return readXLSX(path, fields)
	case ".csv":
		return readDelimited(path, ',', fields)
	default:
		// TSV is the default interchange format.
		return readDelimited(path, '\t', fields)
	}
}

func readDelimited(
	path string,
	comma rune,
	fields []designs.Field,
) (*tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadError(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, ReadError(path, err)
	}
	if len(records) == 0 {
		return nil, HeaderError(path)
	}

	return buildTable(path, records, fields)
}

func readXLSX(path string, fields []designs.Field) (*tabular.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, ReadError(path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, HeaderError(path)
	}

	// The first sheet carries the data by convention.
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ReadError(path, err)
	}
	if len(records) == 0 {
		return nil, HeaderError(path)
	}

	return buildTable(path, records, fields)
}

func buildTable(
	path string,
	records [][]string,
	fields []designs.Field,
) (*tabular.Table, error) {
	header := records[0]
	if len(header) == 0 {
		return nil, HeaderError(path)
	}

	kinds := kindsByName(fields)
	cols := make([]tabular.Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, HeaderError(path)
		}
		kind := tabular.String
		if k, ok := kinds[strings.ToLower(name)]; ok {
			kind = k
		}
		cols[i] = tabular.Column{Name: name, Kind: kind}
	}

	t := tabular.New(cols...)
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		row := make(tabular.Row, len(rec))
		for i, cell := range rec {
			s := strings.TrimSpace(cell)
			if s == "" {
				continue
			}
			row[i] = s
		}
		t.Append(row)
	}

	return t, nil
}

func kindsByName(fields []designs.Field) map[string]tabular.Kind {
	res := make(map[string]tabular.Kind, len(fields))
	for _, f := range fields {
		var k tabular.Kind
		switch f.Type {
		case "numeric":
			k = tabular.Numeric
		case "date":
			k = tabular.Date
		default:
			k = tabular.String
		}
		res[strings.ToLower(f.Name)] = k
	}
	return res
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
