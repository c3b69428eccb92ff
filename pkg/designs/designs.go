// Package designs provides configuration and validation for assay
// designs.
//
// This package defines the schema for designs.yaml, which users provide
// to describe each assay design: its three field groups (batch, run,
// result), the ordered transform scripts attached to it, the subject
// resolution mode, and, for plate-based assays, the plate template with
// its well groups.
package designs

// Designs loads assay design configuration.
type Designs interface {
	Load() (*DesignsConfig, error)
}

// DesignsConfig represents the complete designs.yaml configuration file.
type DesignsConfig struct {
	// AssayDesigns is the list of configured assay designs.
	AssayDesigns []AssayDesign `yaml:"assay_designs"`

	// Warnings holds non-fatal validation warnings (not serialized).
	Warnings []ValidationWarning `yaml:"-"`
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	DesignName string // Name of the assay design
	Field      string // Field name that has the issue
	Message    string // Description of the issue
	Suggestion string // How to fix it
}

// AssayDesign describes one assay design: a named, versioned schema of
// batch, run and result fields plus its ingestion behavior.
type AssayDesign struct {
	// Name identifies the design. Must be unique within designs.yaml.
	Name string `yaml:"name"`

	// Version is bumped on any field-group change.
	Version int `yaml:"version,omitempty"`

	// Provider selects the ingestion variant: "general" (tabular
	// uploads) or "plate" (plate template with derived samples).
	Provider string `yaml:"provider,omitempty"`

	// BatchFields, RunFields and ResultFields are the three domains of
	// the design.
	BatchFields  []Field `yaml:"batch_fields,omitempty"`
	RunFields    []Field `yaml:"run_fields,omitempty"`
	ResultFields []Field `yaml:"result_fields,omitempty"`

	// TransformScripts is the ordered list of external script paths run
	// against each assembled run before persistence.
	TransformScripts []string `yaml:"transform_scripts,omitempty"`

	// SaveScriptFiles keeps transform working directories around for
	// debugging instead of deleting them after each stage.
	SaveScriptFiles bool `yaml:"save_script_files,omitempty"`

	// Resolver selects the subject resolution strategy:
	// "direct", "specimen", "sample" or "thaw_list".
	Resolver string `yaml:"resolver,omitempty"`

	// ThawList configures the indirection side table when Resolver is
	// "thaw_list".
	ThawList *ThawListConfig `yaml:"thaw_list,omitempty"`

	// SampleDataset is the study dataset queried by the "sample"
	// resolver. Defaults to "Samples".
	SampleDataset string `yaml:"sample_dataset,omitempty"`

	// TargetStudy is the design-level default target study container.
	// Batch/run properties and per-row overrides take precedence.
	TargetStudy string `yaml:"target_study,omitempty"`

	// PlateTemplate is required when Provider is "plate".
	PlateTemplate *PlateTemplate `yaml:"plate_template,omitempty"`
}

// Field describes one property field of a batch, run or result domain.
type Field struct {
	// Name is the field name, also the column header for result fields.
	Name string `yaml:"name"`

	// Type is "string", "numeric" or "date".
	Type string `yaml:"type,omitempty"`

	// Required fields must be present and non-blank on upload.
	Required bool `yaml:"required,omitempty"`
}

// ThawListConfig configures the indirection ("thaw list") resolver.
type ThawListConfig struct {
	// Source is "file" (an uploaded literal table) or "list"
	// (a reference list queried by schema/query name).
	Source string `yaml:"source"`

	// File is the side-table path when Source is "file".
	File string `yaml:"file,omitempty"`

	// SchemaName and QueryName locate the reference list when Source is
	// "list".
	SchemaName string `yaml:"schema_name,omitempty"`
	QueryName  string `yaml:"query_name,omitempty"`

	// Child selects the resolver the thaw list delegates to after index
	// mapping: "direct" or "specimen". Defaults to "specimen".
	Child string `yaml:"child,omitempty"`
}

// PlateTemplate describes the plate layout for plate-based designs.
type PlateTemplate struct {
	// Rows and Columns give the plate dimensions (e.g. 8x12 for a
	// 96-well plate).
	Rows    int `yaml:"rows"`
	Columns int `yaml:"columns"`

	// WellGroups lists the specimen well groups on the template.
	WellGroups []WellGroup `yaml:"well_groups"`
}

// WellGroup is a named group of wells treated as one specimen.
type WellGroup struct {
	// Name identifies the group; metadata files reference groups by
	// this name.
	Name string `yaml:"name"`

	// Position is the template's stored position of the group's first
	// well (e.g. "A1"). The template is the source of truth; metadata
	// files declaring a different position are rejected.
	Position string `yaml:"position"`
}
