package iotabular

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// ReadError creates an error for when a tabular file cannot be read or
// parsed.
func ReadError(path string, err error) error {
	msg := `Cannot read tabular file

<em>File:</em> %s

<em>Possible causes:</em>
  - File does not exist or is unreadable
  - File is not valid TSV/CSV/XLSX

<em>How to fix:</em>
  1. Check the file exists: <em>ls -l %s</em>
  2. Re-export the file from its source application`

	vars := []any{path, path}

	return &gn.Error{
		Code: errcode.TabularReadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to read tabular file %s: %w", path, err),
	}
}

// HeaderError creates an error for a file without a usable header row.
func HeaderError(path string) error {
	msg := `Tabular file has no usable header row

<em>File:</em> %s

<em>How to fix:</em>
  1. Ensure the first row contains non-empty column names`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.TabularHeaderError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("no usable header row in %s", path),
	}
}
