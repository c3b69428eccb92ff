// Package schema provides database schema models for the normalized
// assay store. Models are managed by GORM AutoMigrate.
package schema

import (
	"database/sql"
	"time"
)

// Batch is a named group of runs sharing batch-field values.
type Batch struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	// LSID is the stable unique identifier of the batch.
	LSID string `gorm:"column:lsid;uniqueIndex;size:300;not null"`

	// Name must be unique within an assay design scope; uniqueness is
	// enforced best-effort after commit, so no DB constraint here.
	Name string `gorm:"size:200;not null;index"`

	// DesignName ties the batch to its assay design.
	DesignName string `gorm:"size:200;not null;index"`

	CreatedBy string `gorm:"size:100"`
	CreatedAt time.Time
}

// Run is one import event.
type Run struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	LSID string `gorm:"column:lsid;uniqueIndex;size:300;not null"`

	Name string `gorm:"size:200;not null"`

	DesignName string `gorm:"size:200;not null;index"`

	// Container is the folder path the run was created in.
	Container string `gorm:"size:300;index"`

	// FileRoot is the working-root location of the run's files.
	FileRoot string `gorm:"size:500"`

	// BatchID links the run to exactly one batch.
	BatchID int64  `gorm:"not null;index"`
	Batch   *Batch `gorm:"foreignKey:BatchID"`

	CreatedBy string `gorm:"size:100"`
	CreatedAt time.Time
}

// Material is a physical or derived sample entity.
type Material struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	LSID string `gorm:"column:lsid;uniqueIndex;size:300;not null"`

	Name string `gorm:"size:200;not null"`

	SpecimenID sql.NullString `gorm:"size:100;index"`

	// Derived is true for materials synthesized by the pipeline.
	Derived bool `gorm:"not null;default:false"`

	// SourceLSID is the original material this one was derived from.
	SourceLSID sql.NullString `gorm:"column:source_lsid;size:300;index"`

	CreatedAt time.Time
}

// DataFile is one uploaded or produced file artifact.
type DataFile struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	LSID string `gorm:"column:lsid;uniqueIndex;size:300;not null"`

	Name string `gorm:"size:200;not null"`

	// File is the artifact's path under the run's file root.
	File string `gorm:"size:500"`

	CreatedAt time.Time
}

// RunEdge is one protocol-level linkage: a material or data attached to
// a run as input or output.
type RunEdge struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	RunID int64 `gorm:"not null;index"`

	// EntityLSID points at the material or data entity.
	EntityLSID string `gorm:"column:entity_lsid;size:300;not null;index"`

	// Kind is "material" or "data".
	Kind string `gorm:"size:20;not null"`

	// Output is false for inputs, true for outputs.
	Output bool `gorm:"not null"`

	// Ordinal preserves attachment order.
	Ordinal int `gorm:"not null"`
}

// Derivation is one lineage-creation step turning original materials
// into derived ones.
type Derivation struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	// Name labels the step (e.g. "Sample Preparation").
	Name string `gorm:"size:200;not null"`

	CreatedAt time.Time
}

// DerivationEdge links one material or data entity to a derivation
// step with its role.
type DerivationEdge struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	DerivationID int64 `gorm:"not null;index"`

	EntityLSID string `gorm:"column:entity_lsid;size:300;not null;index"`

	// Kind is "material" or "data".
	Kind string `gorm:"size:20;not null"`

	// Role names the entity's part in the derivation (e.g. "Sample").
	Role string `gorm:"size:100"`

	// Output is true for derived materials, false for originals and
	// data inputs.
	Output bool `gorm:"not null"`
}

// Property is one property value of an entity in the opaque key-value
// property model.
type Property struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	// EntityLSID identifies the owning entity (batch, run, material or
	// data).
	EntityLSID string `gorm:"column:entity_lsid;size:300;not null;index:idx_prop_entity"`

	// Name is the property (field) name.
	Name string `gorm:"size:200;not null;index:idx_prop_entity"`

	// StringValue holds string-typed values.
	StringValue sql.NullString `gorm:"size:4000"`

	// FloatValue holds numeric-typed values.
	FloatValue sql.NullFloat64

	// DateValue holds date-typed values.
	DateValue sql.NullTime
}

// ResultRow is one imported result row, belonging to exactly one run.
type ResultRow struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	RunID int64 `gorm:"not null;index"`

	// DataLSID is the data artifact the row came from.
	DataLSID string `gorm:"column:data_lsid;size:300;not null;index"`

	// Ordinal is the row's position within its data artifact.
	Ordinal int `gorm:"not null"`

	// ParticipantID, VisitID, Date and SpecimenID are the resolved
	// subject columns, denormalized for study queries.
	ParticipantID sql.NullString `gorm:"size:100;index"`
	VisitID       sql.NullFloat64
	Date          sql.NullTime
	SpecimenID    sql.NullString `gorm:"size:100;index"`

	// Fields holds the remaining result-field values as JSON.
	Fields string `gorm:"type:jsonb"`
}
