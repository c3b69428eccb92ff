// Package assay provides the domain model and contracts for the run
// ingestion pipeline.
//
// Pure types and interfaces only; impure implementations live in
// internal/io* packages.
package assay

import (
	"time"

	"github.com/assaykit/assaydb/pkg/designs"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// PropertyMap holds property values for an entity, keyed by field name.
type PropertyMap map[string]any

// Clone returns a shallow copy of the map. Cloning a nil map returns an
// empty, non-nil map.
func (p PropertyMap) Clone() PropertyMap {
	res := make(PropertyMap, len(p))
	for k, v := range p {
		res[k] = v
	}
	return res
}

// Batch is a named group of runs sharing batch-field values. It is
// created lazily during the persist step if the caller did not supply
// one.
type Batch struct {
	ID         int64
	LSID       string
	Name       string
	DesignName string
	Properties PropertyMap
	Created    time.Time
}

// RunStatus tracks the lifecycle of a run.
type RunStatus int

const (
	// RunBuilding is the in-memory, uncommitted state.
	RunBuilding RunStatus = iota
	// RunPersisted means the run is committed and queryable.
	RunPersisted
	// RunSuperseded means the run was replaced by a re-import.
	RunSuperseded
)

// Run is one import event: properties, input/output materials and data,
// and a reference to its batch. There is no partially-committed state
// visible to readers; a run is either building or persisted.
type Run struct {
	ID         int64
	LSID       string
	Name       string
	DesignName string
	Container  string
	// FileRoot is the working-root location the run's files are rooted
	// at.
	FileRoot   string
	Status     RunStatus
	Properties PropertyMap
	Batch      *Batch
	Created    time.Time

	InputMaterials  []*Material
	OutputMaterials []*Material
	InputData       []*Data
	OutputData      []*Data
}

// Material is a physical or derived sample entity. Derived materials
// carry a lineage edge to their original via SourceLSID.
type Material struct {
	ID         int64
	LSID       string
	Name       string
	SpecimenID string
	Derived    bool
	// SourceLSID is the original material this one was derived from.
	// Empty for original materials.
	SourceLSID string
	Properties PropertyMap
}

// Data is one uploaded or produced file artifact plus its parsed row
// set. File-only data leaves Rows nil.
type Data struct {
	ID   int64
	LSID string
	Name string
	File string
	Rows *tabular.Table

	// TransformedRows replaces Rows when a transform stage rewrote the
	// data; the persist step then uses the transform-aware import path.
	TransformedRows *tabular.Table
}

// Transformed reports whether a transform stage replaced this data's
// rows.
func (d *Data) Transformed() bool {
	return d.TransformedRows != nil
}

// TransformResult carries optional replacement batch properties, run
// properties and/or a replacement data-row table produced by a
// transform stage. A nil/empty member means "use upstream value
// unchanged".
type TransformResult struct {
	BatchProperties PropertyMap
	RunProperties   PropertyMap
	Rows            *tabular.Table
	// OutputFiles lists any additional data files the script produced.
	OutputFiles []string
}

// Empty reports whether the result carries no overrides at all.
func (t *TransformResult) Empty() bool {
	return t == nil ||
		(len(t.BatchProperties) == 0 && len(t.RunProperties) == 0 &&
			t.Rows == nil && len(t.OutputFiles) == 0)
}

// UploadContext is everything the caller supplies for one ingestion:
// the design, the uploaded files, submitted property values and the
// acting user.
type UploadContext struct {
	Design *designs.AssayDesign

	// Container is the run container (folder) path the run is created
	// in.
	Container string

	// User is the acting user's identifier, bound to transform script
	// sessions.
	User string

	// UploadDir is the directory holding the uploaded files.
	UploadDir string

	// PrimaryFile is the main uploaded results file. The run name
	// defaults to its base name when RunName is empty.
	PrimaryFile string

	// UploadedFiles lists all uploaded files, primary included.
	UploadedFiles []string

	// RunName overrides the default run name.
	RunName string

	// BatchName overrides the default batch name.
	BatchName string

	BatchProperties PropertyMap
	RunProperties   PropertyMap

	// TargetStudy is the default target study container for subject
	// resolution; a per-row override wins over it.
	TargetStudy string

	// Rows is the parsed row set of the primary file.
	Rows *tabular.Table

	// SampleMetadataFile is the optional plate metadata file for
	// plate-based designs.
	SampleMetadataFile string

	// WellGroupEntries carries manually entered subject tokens per well
	// group for plate-based designs without a metadata file, keyed by
	// well-group name.
	WellGroupEntries map[string]ResolveRequest
}
