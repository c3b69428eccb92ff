package iotransform

import (
	"fmt"

	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

// NoEngineError creates an error for when no script engine is
// registered for a transform script's extension. Fatal,
// configuration-level; never retried.
func NoEngineError(script, ext string) error {
	msg := `No script engine registered for transform script

<em>Script:</em> %s
<em>Extension:</em> %s

<em>How to fix:</em>
  1. Add an engine for the extension under transform.engines in
     config.yaml
  2. Or rename the script to an extension with a configured engine`

	vars := []any{script, ext}

	return &gn.Error{
		Code: errcode.EngineNotFoundError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("no engine for extension %q (%s)", ext, script),
	}
}

// ScriptMissingError creates an error for a configured transform script
// that cannot be found.
func ScriptMissingError(script string, err error) error {
	msg := `Transform script not found

<em>Script:</em> %s

<em>How to fix:</em>
  1. Check the script path in designs.yaml
  2. Check file permissions`

	vars := []any{script}

	return &gn.Error{
		Code: errcode.ScriptMissingError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("transform script missing %s: %w", script, err),
	}
}

// ExecError creates an error for a failed script execution. The
// script's combined output is preserved for diagnosis.
func ExecError(script, output string, err error) error {
	msg := `Transform script execution failed

<em>Script:</em> %s

<em>Script output:</em>
%s`

	vars := []any{script, output}

	return &gn.Error{
		Code: errcode.ScriptExecError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("transform script %s failed: %w", script, err),
	}
}

// WorkDirError creates an error for a working directory that cannot be
// prepared.
func WorkDirError(dir string, err error) error {
	msg := `Could not prepare transform working directory

<em>Directory:</em> %s`

	vars := []any{dir}

	return &gn.Error{
		Code: errcode.WorkDirError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to prepare work dir %s: %w", dir, err),
	}
}

// ExchangeWriteError creates an error for a data exchange file that
// cannot be written.
func ExchangeWriteError(path string, err error) error {
	msg := `Could not write data exchange file

<em>File:</em> %s`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.ExchangeError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to write exchange file %s: %w", path, err),
	}
}

// ExchangeReadError creates an error for script output that cannot be
// read back.
func ExchangeReadError(path string, err error) error {
	msg := `Could not read transform script output

<em>File:</em> %s

<em>How to fix:</em>
  1. Check the script writes tab-separated name/value lines`

	vars := []any{path}

	return &gn.Error{
		Code: errcode.ExchangeError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to read exchange file %s: %w", path, err),
	}
}
