package iotransform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// Chain runs the ordered transform scripts of an assay design against
// an assembled run. Non-empty transformed properties from one stage
// become the input properties of the next, so a chain of N scripts sees
// monotonically updated state; the final stage's output is what the
// pipeline persists.
type Chain struct {
	registry assay.EngineRegistry
	exchange assay.DataExchangeHandler
	sessions assay.SessionFactory
	baseURL  string

	// workRoot is the explicit per-invocation working directory handle;
	// stage directories are created under it.
	workRoot string
}

// New creates a transform chain rooted at workRoot.
func New(
	registry assay.EngineRegistry,
	exchange assay.DataExchangeHandler,
	sessions assay.SessionFactory,
	baseURL, workRoot string,
) *Chain {
	return &Chain{
		registry: registry,
		exchange: exchange,
		sessions: sessions,
		baseURL:  baseURL,
		workRoot: workRoot,
	}
}

// Run executes every configured script in design order. It returns the
// final property/data overrides; an empty result means no script
// changed anything. Any stage failure aborts the whole chain, and with
// it the enclosing ingestion.
func (c *Chain) Run(
	ctx context.Context,
	uc *assay.UploadContext,
	run *assay.Run,
	batchProps, runProps assay.PropertyMap,
) (*assay.TransformResult, error) {
	scripts := uc.Design.TransformScripts
	if len(scripts) == 0 {
		return &assay.TransformResult{}, nil
	}

	curBatch := batchProps.Clone()
	curRun := runProps.Clone()
	var batchChanged, runChanged bool
	var finalRows *tabular.Table
	var outputFiles []string

	for i, script := range scripts {
		res, err := c.runStage(ctx, uc, run, i, script, curBatch, curRun)
		if err != nil {
			return nil, err
		}

		// Propagation: a stage's non-empty output becomes the next
		// stage's input; empty output leaves upstream values standing.
		if len(res.BatchProperties) > 0 {
			curBatch = res.BatchProperties
			batchChanged = true
		}
		if len(res.RunProperties) > 0 {
			curRun = res.RunProperties
			runChanged = true
		}
		if res.Rows != nil {
			finalRows = res.Rows
		}
		outputFiles = append(outputFiles, res.OutputFiles...)
	}

	final := &assay.TransformResult{
		Rows:        finalRows,
		OutputFiles: outputFiles,
	}
	if batchChanged {
		final.BatchProperties = curBatch
	}
	if runChanged {
		final.RunProperties = curRun
	}
	return final, nil
}

// runStage executes one script in an isolated working directory.
func (c *Chain) runStage(
	ctx context.Context,
	uc *assay.UploadContext,
	run *assay.Run,
	stage int,
	script string,
	batchProps, runProps assay.PropertyMap,
) (res *assay.TransformResult, err error) {
	if _, statErr := os.Stat(script); statErr != nil {
		return nil, ScriptMissingError(script, statErr)
	}

	ext := strings.TrimPrefix(filepath.Ext(script), ".")
	engine, ok := c.registry.EngineForExtension(ext)
	if !ok {
		return nil, NoEngineError(script, ext)
	}

	workDir, err := c.stageDir(uc, stage, script)
	if err != nil {
		return nil, err
	}
	defer func() {
		// The working directory is deleted after the stage unless the
		// design retains script files for debugging. A cleanup failure
		// must never mask the stage's own error.
		if uc.Design.SaveScriptFiles {
			return
		}
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			slog.Warn("Could not remove transform working directory",
				"dir", workDir, "error", rmErr)
		}
	}()

	params := assay.ScriptParams{
		WorkDir:       workDir,
		BaseServerURL: c.baseURL,
		Container:     uc.Container,
	}

	infoPath, _, err := c.exchange.CreateRunInfoArtifact(
		workDir, run, batchProps, runProps, params)
	if err != nil {
		return nil, err
	}
	params.RunInfoFile = infoPath

	// Session token is scoped to the script execution: released on
	// success and failure alike.
	sessionID, err := c.sessions.Acquire(ctx, uc.User)
	if err != nil {
		return nil, err
	}
	params.SessionID = sessionID

	execErr := engine.Exec(ctx, script, params)
	c.sessions.Release(sessionID)
	if execErr != nil {
		return nil, execErr
	}

	return c.exchange.ProcessScriptOutput(workDir, run)
}

// stageDir creates the stage's working directory, clearing any
// previous content if the path is reused. Retained directories live
// under a per-design "saved" root instead of tmp.
func (c *Chain) stageDir(
	uc *assay.UploadContext,
	stage int,
	script string,
) (string, error) {
	base := fmt.Sprintf("stage-%d-%s", stage+1,
		strings.TrimSuffix(filepath.Base(script), filepath.Ext(script)))

	var dir string
	if uc.Design.SaveScriptFiles {
		dir = filepath.Join(c.workRoot, "saved", uc.Design.Name, base)
	} else {
		dir = filepath.Join(c.workRoot, "tmp", base)
	}

	if err := os.RemoveAll(dir); err != nil {
		return "", WorkDirError(dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", WorkDirError(dir, err)
	}
	return dir, nil
}
