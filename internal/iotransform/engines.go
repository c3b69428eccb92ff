// Package iotransform executes the ordered external transform scripts
// attached to an assay design and feeds property and data mutations
// between stages. This is an impure I/O package.
package iotransform

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/config"
)

// registry implements assay.EngineRegistry over the configured
// extension-to-command map.
type registry struct {
	engines map[string]assay.Engine
}

// NewRegistry builds the script engine registry from the transform
// configuration. Extensions are matched without the leading dot,
// case-insensitively.
func NewRegistry(cfg *config.TransformConfig) assay.EngineRegistry {
	engines := make(map[string]assay.Engine, len(cfg.Engines))
	for ext, command := range cfg.Engines {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		engines[ext] = &execEngine{ext: ext, command: command}
	}
	return &registry{engines: engines}
}

func (r *registry) EngineForExtension(ext string) (assay.Engine, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	e, ok := r.engines[ext]
	return e, ok
}

// execEngine runs scripts as external processes using a configured
// command template.
type execEngine struct {
	ext     string
	command string
}

func (e *execEngine) Extension() string {
	return e.ext
}

// Exec substitutes the script path into the command template, binds the
// standard parameters through the environment, and blocks until the
// process returns.
func (e *execEngine) Exec(
	ctx context.Context,
	scriptPath string,
	params assay.ScriptParams,
) error {
	command := strings.ReplaceAll(e.command, "${scriptFile}", scriptPath)
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return ExecError(scriptPath, "", nil)
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = params.WorkDir
	cmd.Env = append(os.Environ(),
		"ASSAYDB_WORK_DIR="+params.WorkDir,
		"ASSAYDB_RUN_INFO="+params.RunInfoFile,
		"ASSAYDB_SESSION_ID="+params.SessionID,
		"ASSAYDB_BASE_URL="+params.BaseServerURL,
		"ASSAYDB_CONTAINER="+params.Container,
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return ExecError(scriptPath, string(out), err)
	}
	return nil
}
