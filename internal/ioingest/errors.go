package ioingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

var errNoSuchBatch = errors.New("no such batch")

// RequiredPropertiesError creates an error aggregating every missing
// required batch/run property. Collected rather than fail-fast to
// minimize re-upload cycles.
func RequiredPropertiesError(missing []string) error {
	msg := `Required properties are missing

<em>Missing:</em>
%s

<em>How to fix:</em>
  1. Supply a value for each required field of the assay design`

	vars := []any{"  - " + strings.Join(missing, "\n  - ")}

	return &gn.Error{
		Code: errcode.RequiredPropertyError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("missing required properties: %s",
			strings.Join(missing, ", ")),
	}
}

// NoFilesError creates an error for an upload with no files.
func NoFilesError() error {
	msg := `Upload contains no files

<em>How to fix:</em>
  1. Supply at least a primary results file`

	return &gn.Error{
		Code: errcode.ValidationError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("upload contains no files"),
	}
}

// PlateUnsupportedError creates an error for a plate-based design
// ingested through a pipeline with no plate assembler wired in.
func PlateUnsupportedError(design string) error {
	msg := `Assay design requires plate-based assembly

<em>Design:</em> %s

<em>How to fix:</em>
  1. Define a plate_template for the design, or
  2. Switch the design's provider to "general"`

	vars := []any{design}

	return &gn.Error{
		Code: errcode.ValidationError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("no plate assembler for design %s", design),
	}
}

// PersistError creates an error for any failure during the atomic
// persist step. The enclosing transaction is rolled back; no partial
// state is retained and no retry is attempted.
func PersistError(op string, err error) error {
	msg := `Run persistence failed; the transaction was rolled back

<em>Operation:</em> %s

No partial run is visible. Correct the problem and re-ingest.`

	vars := []any{op}

	return &gn.Error{
		Code: errcode.PersistenceError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("persist failed at %s: %w", op, err),
	}
}

// BatchSaveError creates an error for a batch row that cannot be
// saved.
func BatchSaveError(name string, err error) error {
	msg := `Could not save batch

<em>Batch:</em> %s`

	vars := []any{name}

	return &gn.Error{
		Code: errcode.BatchSaveError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to save batch %s: %w", name, err),
	}
}

// RunSaveError creates an error for a run row that cannot be saved.
func RunSaveError(name string, err error) error {
	msg := `Could not save run

<em>Run:</em> %s`

	vars := []any{name}

	return &gn.Error{
		Code: errcode.RunSaveError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to save run %s: %w", name, err),
	}
}

// PropertySaveError creates an error for a property value that cannot
// be saved.
func PropertySaveError(entityLSID, name string, err error) error {
	msg := `Could not save property value

<em>Entity:</em> %s
<em>Property:</em> %s`

	vars := []any{entityLSID, name}

	return &gn.Error{
		Code: errcode.PropertySaveError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("failed to save property %s of %s: %w",
			name, entityLSID, err),
	}
}
