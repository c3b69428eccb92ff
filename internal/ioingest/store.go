// Package ioingest implements the run ingestion pipeline: it assembles
// a run from an upload, resolves subject identities and properties,
// invokes the transform chain, and persists the whole run atomically.
package ioingest

import (
	"context"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// RunStore is the persistence boundary of the pipeline. The pgx
// implementation writes the normalized store; the memory implementation
// backs tests and dry runs.
type RunStore interface {
	// WithTx runs fn inside one transaction. Any error from fn rolls
	// the whole transaction back; partial runs are never visible.
	WithTx(ctx context.Context, fn func(tx RunTx) error) error

	// BatchNameExists reports whether another batch of the same design
	// already uses the name. excludeID skips the batch itself.
	BatchNameExists(
		ctx context.Context,
		designName, name string,
		excludeID int64,
	) (bool, error)

	// RenameBatch renames a batch outside any transaction. Used by the
	// best-effort post-commit uniqueness pass.
	RenameBatch(ctx context.Context, batchID int64, name string) error

	// FindBatch returns a design's batch by name, nil when none exists.
	// Used to append runs to a pre-existing batch.
	FindBatch(
		ctx context.Context,
		designName, name string,
	) (*assay.Batch, error)
}

// RunTx is the set of writes available inside the persist transaction.
// Insert methods assign the entity's numeric ID on success.
type RunTx interface {
	InsertBatch(ctx context.Context, b *assay.Batch) error
	InsertRun(ctx context.Context, r *assay.Run) error
	InsertMaterial(ctx context.Context, m *assay.Material) error
	InsertData(ctx context.Context, d *assay.Data) error

	// InsertEdge materializes one protocol-level input/output linkage.
	InsertEdge(
		ctx context.Context,
		runID int64,
		entityLSID, kind string,
		output bool,
		ordinal int,
	) error

	// InsertProperties stores an entity's property values.
	InsertProperties(
		ctx context.Context,
		entityLSID string,
		props assay.PropertyMap,
	) error

	// InsertResultRows stores one data artifact's rows with their
	// resolved subject identities (aligned by index; identities may be
	// nil for file-only data).
	InsertResultRows(
		ctx context.Context,
		runID int64,
		d *assay.Data,
		rows *tabular.Table,
		identities []assay.SubjectIdentity,
	) error
}

// PostSaveHook runs inside the persist transaction after all writes; a
// non-nil error still aborts the transaction.
type PostSaveHook func(ctx context.Context, tx RunTx, run *assay.Run) error
