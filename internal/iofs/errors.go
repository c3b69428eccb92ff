package iofs

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// CreateDirError creates an error for when a directory cannot be
// created.
func CreateDirError(dir string, err error) error {
	msg := `Could not create directory

<em>Directory:</em> %s

<em>How to fix:</em>
  1. Check the parent directory is writable
  2. Check available disk space`

	vars := []any{dir}

	return &gn.Error{
		Code: errcode.CreateDirError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to create directory %s: %w", dir, err),
	}
}

// WriteFileError creates an error for when a default file cannot be
// written.
func WriteFileError(path string, err error) error {
	msg := `Could not write file

<em>Path:</em> %s`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to write file %s: %w", path, err),
	}
}
