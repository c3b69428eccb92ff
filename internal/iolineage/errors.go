package iolineage

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// DeriveError creates an error for a derivation step that cannot be
// saved.
func DeriveError(name string, err error) error {
	msg := `Could not save sample derivation

<em>Derivation:</em> %s`

	vars := []any{name}

	return &gn.Error{
		Code: errcode.LineageError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to save derivation %s: %w", name, err),
	}
}
