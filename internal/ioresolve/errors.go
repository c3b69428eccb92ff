package ioresolve

import (
	"fmt"
	"strings"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// LookupError creates an error for when a required external lookup
// cannot be performed. Fatal to the enclosing run ingestion.
func LookupError(study, query string, err error) error {
	msg := `Subject resolution lookup failed

<em>Target study:</em> %s
<em>Query:</em> %s

<em>Possible causes:</em>
  - Reference list or dataset is unreachable
  - Target study does not exist

<em>How to fix:</em>
  1. Check the target study path
  2. Verify the study publishes the expected table`

	vars := []any{study, query}

	return &gn.Error{
		Code: errcode.ResolutionLookupError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("resolution lookup %s/%s failed: %w",
			study, query, err),
	}
}

// AmbiguousSpecimenError creates an error for a specimen token matching
// more than one specimen record.
func AmbiguousSpecimenError(specimenID, study string, n int) error {
	msg := `Ambiguous specimen match

<em>Specimen:</em> %s
<em>Target study:</em> %s
<em>Matches:</em> %d

<em>How to fix:</em>
  1. Check for duplicate vial records in the study`

	vars := []any{specimenID, study, n}

	return &gn.Error{
		Code: errcode.ResolutionAmbiguousError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("specimen %q matches %d records in %s",
			specimenID, n, study),
	}
}

// AmbiguousSampleError creates an error for a sample token matching
// more than one published dataset row.
func AmbiguousSampleError(sample, dataset, study string, n int) error {
	msg := `Ambiguous sample match

<em>Sample:</em> %s
<em>Dataset:</em> %s
<em>Target study:</em> %s
<em>Matches:</em> %d`

	vars := []any{sample, dataset, study, n}

	return &gn.Error{
		Code: errcode.ResolutionAmbiguousError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("sample %q matches %d rows of %s in %s",
			sample, n, dataset, study),
	}
}

// ThawListError creates an error aggregating every structural problem
// found in an indirection side table. Problems are reported together to
// minimize re-upload cycles.
func ThawListError(problems []string) error {
	msg := `Thaw list validation failed

<em>Problems:</em>
%s

<em>How to fix:</em>
  1. The side table needs Index, SpecimenID, ParticipantID, VisitID
     and Date columns
  2. Index values must be unique
  3. VisitID must be numeric, Date must be a date`

	vars := []any{"  - " + strings.Join(problems, "\n  - ")}

	return &gn.Error{
		Code: errcode.ResolutionThawListError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("thaw list validation failed: %s",
			strings.Join(problems, "; ")),
	}
}

// ThawListIndexError creates an error for a result row referencing a
// side-table index that does not exist.
func ThawListIndexError(index string) error {
	msg := `Thaw list index not found

<em>Index:</em> %s

<em>How to fix:</em>
  1. Check the result rows against the side table's Index column`

	vars := []any{index}

	return &gn.Error{
		Code: errcode.ResolutionThawListError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("thaw list has no row for index %q", index),
	}
}
