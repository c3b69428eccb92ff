package iologger

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// CreateLogFileError creates an error for when the log file cannot be
// created.
func CreateLogFileError(path string, err error) error {
	msg := `Could not create log file

<em>Path:</em> %s

<em>How to fix:</em>
  1. Check the directory exists and is writable
  2. Or set log destination to 'stderr' in config.yaml`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.CreateLogFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to create log file %s: %w", path, err),
	}
}
