package ioquery

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// SelectError creates an error for a reference list or dataset that
// cannot be queried.
func SelectError(schema, query string, err error) error {
	msg := `Could not query reference list

<em>List:</em> %s.%s

<em>How to fix:</em>
  1. Check the schema_name and query_name of the design
  2. Check that the reference table exists and is readable`

	vars := []any{schema, query}

	return &gn.Error{
		Code: errcode.ResolutionLookupError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to query %s.%s: %w", schema, query, err),
	}
}
