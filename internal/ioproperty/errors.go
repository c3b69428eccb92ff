package ioproperty

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// EmptyLSIDError creates an error for a property operation without an
// entity identifier.
func EmptyLSIDError() error {
	msg := `Property operation has no entity identifier`

	return &gn.Error{
		Code: errcode.PropertySaveError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("empty entity lsid"),
	}
}

// InsertError creates an error for a property value that cannot be
// stored.
func InsertError(entityLSID, name string, err error) error {
	msg := `Could not store property value

<em>Entity:</em> %s
<em>Property:</em> %s`

	vars := []any{entityLSID, name}

	return &gn.Error{
		Code: errcode.PropertySaveError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("failed to store property %s of %s: %w",
			name, entityLSID, err),
	}
}

// ReadError creates an error for properties that cannot be read.
func ReadError(entityLSID string, err error) error {
	msg := `Could not read properties

<em>Entity:</em> %s`

	vars := []any{entityLSID}

	return &gn.Error{
		Code: errcode.PropertySaveError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to read properties of %s: %w", entityLSID, err),
	}
}
