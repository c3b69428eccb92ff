package ioconfig

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// LoadError creates an error for when configuration cannot be loaded.
func LoadError(path string, err error) error {
	msg := `Cannot load configuration

<em>Configuration file:</em> %s

<em>Possible causes:</em>
  - File does not exist
  - Invalid YAML format
  - Permission denied

<em>How to fix:</em>
  1. Check if file exists: <em>ls -l %s</em>
  2. Validate YAML syntax
  3. Remove the file to regenerate defaults`

	vars := []any{path, path}

	return &gn.Error{
		Code: errcode.ConfigLoadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to load config: %w", err),
	}
}
