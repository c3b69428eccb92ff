package assay

import (
	"context"

	"github.com/assaykit/assaydb/pkg/tabular"
)

// Resolver maps a raw token tuple to a SubjectIdentity. Resolve never
// returns a nil-equivalent error for merely missing input fields; those
// propagate as blank fields in the result. It fails only when a
// required external lookup cannot be performed (unreachable reference
// list, ambiguous match).
//
// Within one pipeline invocation, resolving the same normalized tuple
// twice returns the identical identity and invokes the underlying
// strategy at most once.
type Resolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (SubjectIdentity, error)
}

// Pipeline is the produced interface of this subsystem: ingest one run,
// atomically, into a batch (created lazily when existing is nil).
type Pipeline interface {
	IngestRun(
		ctx context.Context,
		uc *UploadContext,
		existing *Batch,
	) (*Run, *Batch, error)
}

// PropertyStore is the opaque key-value property model, keyed by entity
// LSID.
type PropertyStore interface {
	EnsureObject(ctx context.Context, entityLSID string) error
	InsertProperties(ctx context.Context, entityLSID string, props PropertyMap) error
	GetProperties(ctx context.Context, entityLSID string) (PropertyMap, error)
}

// DataImportHandler parses and stores the row content of one data
// artifact.
type DataImportHandler interface {
	// ImportContent parses the data's file and stores its rows.
	ImportContent(ctx context.Context, d *Data, file string) error

	// ImportTransformedRows stores rows a transform stage already
	// produced, bypassing file parsing.
	ImportTransformedRows(ctx context.Context, d *Data, rows *tabular.Table) error
}

// ScriptParams are the standard parameters bound for every transform
// script execution.
type ScriptParams struct {
	// WorkDir is the per-stage working directory.
	WorkDir string

	// RunInfoFile is the run info artifact describing current
	// batch/run properties and file locations.
	RunInfoFile string

	// SessionID is the session token bound to the acting user for the
	// duration of the script.
	SessionID string

	// BaseServerURL lets scripts call back into the server API.
	BaseServerURL string

	// Container is the run container path.
	Container string
}

// Engine executes one external transform script.
type Engine interface {
	// Extension is the script file extension this engine handles,
	// without the leading dot.
	Extension() string

	// Exec runs the script; it blocks until the script process
	// returns.
	Exec(ctx context.Context, scriptPath string, params ScriptParams) error
}

// EngineRegistry locates a script engine for a file extension. The
// second value is false when no engine is registered.
type EngineRegistry interface {
	EngineForExtension(ext string) (Engine, bool)
}

// DataExchangeHandler mediates between the pipeline and external
// transform scripts: it writes the run info artifact the script reads
// and reads back whatever the script produced.
type DataExchangeHandler interface {
	// CreateRunInfoArtifact writes the run info file into dir and
	// returns its path plus any related files written alongside it.
	CreateRunInfoArtifact(
		dir string,
		run *Run,
		batchProps, runProps PropertyMap,
		params ScriptParams,
	) (string, []string, error)

	// ProcessScriptOutput reads transformed properties/data the script
	// left in dir. A result with no overrides is returned as an empty,
	// non-nil TransformResult.
	ProcessScriptOutput(dir string, run *Run) (*TransformResult, error)
}

// RowSelector queries reference lists and study datasets.
type RowSelector interface {
	// SelectRows returns rows of schema.query matching the filter
	// (column name -> required value). A miss returns an empty table,
	// not an error.
	SelectRows(
		ctx context.Context,
		schema, query string,
		filter map[string]any,
	) (*tabular.Table, error)
}

// DeriveInfo carries provenance for one lineage-creation operation.
type DeriveInfo struct {
	// Name labels the derivation step (e.g. "Sample Preparation").
	Name string

	// DataInputs are files recorded as inputs on the derivation step,
	// so e.g. a sample metadata file stays traceable.
	DataInputs []*Data
}

// LineageCreator materializes derivation edges between original and
// derived materials. Map values are the role names of each material in
// the derivation.
type LineageCreator interface {
	DeriveSamples(
		ctx context.Context,
		originals map[*Material]string,
		deriveds map[*Material]string,
		info *DeriveInfo,
	) error
}

// SessionFactory creates and releases transform-script session tokens
// bound to the acting user. Release must be called regardless of script
// success (scoped acquisition).
type SessionFactory interface {
	Acquire(ctx context.Context, user string) (string, error)
	Release(sessionID string)
}
