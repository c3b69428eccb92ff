package iodesigns

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// DesignsConfigError creates an error for when designs.yaml cannot be
// loaded.
func DesignsConfigError(path string, err error) error {
	msg := `Cannot load assay designs configuration

<em>Configuration file:</em> %s

<em>Possible causes:</em>
  - File does not exist
  - Invalid YAML format
  - Design fails validation (duplicate names, bad field types)

<em>How to fix:</em>
  1. Check if file exists: <em>ls -l %s</em>
  2. Validate YAML syntax
  3. Remove the file to regenerate the documented example`

	vars := []any{path, path}

	return &gn.Error{
		Code: errcode.DesignConfigError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to load designs config: %w", err),
	}
}

// DesignNotFoundError creates an error for when the requested design is
// not configured.
func DesignNotFoundError(name string, available []string) error {
	msg := `Assay design not found

<em>Requested design:</em> %s
<em>Available designs:</em> %v

<em>How to fix:</em>
  1. Check the design name spelling
  2. Add the design to designs.yaml`

	vars := []any{name, available}

	return &gn.Error{
		Code: errcode.DesignNotFoundError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("assay design not found: %s", name),
	}
}
