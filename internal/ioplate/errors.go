package ioplate

import (
	"fmt"
	"strings"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// TemplateMissingError creates an error for a plate-based design
// without a plate template.
func TemplateMissingError(design string) error {
	msg := `Plate-based design has no plate template

<em>Design:</em> %s

<em>How to fix:</em>
  1. Add a plate_template section to the design in designs.yaml`

	vars := []any{design}

	return &gn.Error{
		Code: errcode.WellGroupError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("design %s has no plate template", design),
	}
}

// MetadataError creates an error aggregating every structural problem
// of a sample metadata file. Collected rather than fail-fast to
// minimize re-upload cycles.
func MetadataError(path string, problems []string) error {
	msg := `Sample metadata file is invalid

<em>File:</em> %s

<em>Problems:</em>
%s

<em>How to fix:</em>
  1. Correct the listed rows and upload the file again
  2. Well group names and positions must match the plate template`

	vars := []any{path, "  - " + strings.Join(problems, "\n  - ")}

	return &gn.Error{
		Code: errcode.PlatePositionError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("invalid sample metadata %s: %s",
			path, strings.Join(problems, "; ")),
	}
}

// IdentifierError creates an error for a generated sample identifier
// that is not valid identifier syntax.
func IdentifierError(name string) error {
	msg := `Generated sample identifier is invalid

<em>Identifier:</em> %s

<em>How to fix:</em>
  1. Use specimen and well-group names made of letters, digits and
     ".", "_", "%%", "+", "-"`

	vars := []any{name}

	return &gn.Error{
		Code: errcode.SampleIDGenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("invalid generated sample identifier %q", name),
	}
}
