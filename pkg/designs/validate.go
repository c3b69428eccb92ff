package designs

import (
	"fmt"
	"slices"
	"strings"
)

var validFieldTypes = []string{"string", "numeric", "date"}

var validResolvers = []string{"direct", "specimen", "sample", "thaw_list"}

// Validate checks the configuration for errors and applies defaults.
func (c *DesignsConfig) Validate() error {
	if len(c.AssayDesigns) == 0 {
		return fmt.Errorf("no assay designs specified in configuration")
	}

	seen := make(map[string]bool, len(c.AssayDesigns))
	for i := range c.AssayDesigns {
		d := &c.AssayDesigns[i]
		if seen[d.Name] {
			return fmt.Errorf("duplicate assay design name: %q", d.Name)
		}
		seen[d.Name] = true

		warnings, err := d.Validate()
		if err != nil {
			return fmt.Errorf("assay design %d (%s): %w", i+1, d.Name, err)
		}
		c.Warnings = append(c.Warnings, warnings...)
	}

	return nil
}

// Validate checks a single assay design for data structure validity.
// File system validation (script existence) is deferred to runtime (I/O
// layer). Returns a slice of warnings (non-fatal issues) and an error
// (fatal issues).
func (d *AssayDesign) Validate() ([]ValidationWarning, error) {
	var warnings []ValidationWarning

	if d.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	// Apply defaults
	if d.Provider == "" {
		d.Provider = "general"
	}
	if d.Resolver == "" {
		d.Resolver = "direct"
	}
	if d.Version == 0 {
		d.Version = 1
	}

	if d.Provider != "general" && d.Provider != "plate" {
		return nil, fmt.Errorf(
			"invalid provider %q: must be 'general' or 'plate'", d.Provider)
	}

	if !slices.Contains(validResolvers, d.Resolver) {
		return nil, fmt.Errorf(
			"invalid resolver %q: must be one of %s",
			d.Resolver, strings.Join(validResolvers, ", "))
	}

	if d.Resolver == "sample" && d.SampleDataset == "" {
		d.SampleDataset = "Samples"
	}

	if d.Resolver == "thaw_list" {
		if d.ThawList == nil {
			return nil, fmt.Errorf(
				"thaw_list configuration is required for the thaw_list resolver")
		}
		if err := d.ThawList.validate(); err != nil {
			return nil, err
		}
	} else if d.ThawList != nil {
		warnings = append(warnings, ValidationWarning{
			DesignName: d.Name,
			Field:      "thaw_list",
			Message:    "thaw_list is configured but resolver is not 'thaw_list'",
			Suggestion: "Set 'resolver: thaw_list' or remove the thaw_list section",
		})
	}

	for _, group := range []struct {
		name   string
		fields []Field
	}{
		{"batch_fields", d.BatchFields},
		{"run_fields", d.RunFields},
		{"result_fields", d.ResultFields},
	} {
		if err := validateFields(group.name, group.fields); err != nil {
			return nil, err
		}
	}

	if d.Provider == "plate" {
		if d.PlateTemplate == nil {
			return nil, fmt.Errorf("plate provider requires a plate_template")
		}
		if err := d.PlateTemplate.validate(); err != nil {
			return nil, err
		}
	} else if d.PlateTemplate != nil {
		warnings = append(warnings, ValidationWarning{
			DesignName: d.Name,
			Field:      "plate_template",
			Message:    "plate_template is configured but provider is not 'plate'",
			Suggestion: "Set 'provider: plate' or remove the plate_template section",
		})
	}

	return warnings, nil
}

func validateFields(group string, fields []Field) error {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		f := &fields[i]
		if f.Name == "" {
			return fmt.Errorf("%s[%d]: name is required", group, i)
		}
		key := strings.ToLower(f.Name)
		if seen[key] {
			return fmt.Errorf("%s: duplicate field name %q", group, f.Name)
		}
		seen[key] = true

		if f.Type == "" {
			f.Type = "string"
		}
		if !slices.Contains(validFieldTypes, f.Type) {
			return fmt.Errorf(
				"%s (%s): invalid type %q: must be one of %s",
				group, f.Name, f.Type, strings.Join(validFieldTypes, ", "))
		}
	}
	return nil
}

func (t *ThawListConfig) validate() error {
	switch t.Source {
	case "file":
		if t.File == "" {
			return fmt.Errorf("thaw_list: file is required when source is 'file'")
		}
	case "list":
		if t.SchemaName == "" || t.QueryName == "" {
			return fmt.Errorf(
				"thaw_list: schema_name and query_name are required when source is 'list'")
		}
	default:
		return fmt.Errorf(
			"thaw_list: invalid source %q: must be 'file' or 'list'", t.Source)
	}

	if t.Child == "" {
		t.Child = "specimen"
	}
	if t.Child != "direct" && t.Child != "specimen" {
		return fmt.Errorf(
			"thaw_list: invalid child resolver %q: must be 'direct' or 'specimen'",
			t.Child)
	}
	return nil
}

func (p *PlateTemplate) validate() error {
	if p.Rows <= 0 || p.Columns <= 0 {
		return fmt.Errorf("plate_template: rows and columns must be positive")
	}
	if len(p.WellGroups) == 0 {
		return fmt.Errorf("plate_template: at least one well group is required")
	}

	seenName := make(map[string]bool, len(p.WellGroups))
	seenPos := make(map[string]bool, len(p.WellGroups))
	for i, wg := range p.WellGroups {
		if wg.Name == "" {
			return fmt.Errorf("plate_template: well_groups[%d]: name is required", i)
		}
		if seenName[wg.Name] {
			return fmt.Errorf("plate_template: duplicate well group name %q", wg.Name)
		}
		seenName[wg.Name] = true

		if wg.Position == "" {
			return fmt.Errorf(
				"plate_template: well group %q: position is required", wg.Name)
		}
		if !ValidPosition(wg.Position, p.Rows, p.Columns) {
			return fmt.Errorf(
				"plate_template: well group %q: position %q is outside a %dx%d plate",
				wg.Name, wg.Position, p.Rows, p.Columns)
		}
		if seenPos[wg.Position] {
			return fmt.Errorf(
				"plate_template: duplicate well group position %q", wg.Position)
		}
		seenPos[wg.Position] = true
	}
	return nil
}

// ValidPosition reports whether a well position like "A1" or "H12" fits
// on a plate with the given dimensions. Row letters run A..Z, so plates
// larger than 26 rows are not representable.
func ValidPosition(pos string, rows, cols int) bool {
	if len(pos) < 2 {
		return false
	}
	row := int(pos[0] - 'A')
	if row < 0 || row >= rows {
		return false
	}
	col := 0
	for _, r := range pos[1:] {
		if r < '0' || r > '9' {
			return false
		}
		col = col*10 + int(r-'0')
	}
	return col >= 1 && col <= cols
}

// ByName returns the design with the given name, or nil if absent.
func (c *DesignsConfig) ByName(name string) *AssayDesign {
	for i := range c.AssayDesigns {
		if c.AssayDesigns[i].Name == name {
			return &c.AssayDesigns[i]
		}
	}
	return nil
}

// WellGroupByName returns the well group with the given name, or nil.
func (p *PlateTemplate) WellGroupByName(name string) *WellGroup {
	for i := range p.WellGroups {
		if p.WellGroups[i].Name == name {
			return &p.WellGroups[i]
		}
	}
	return nil
}
