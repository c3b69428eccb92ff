package ioplate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/assaykit/assaydb/internal/iotabular"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/designs"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// Metadata-file column names.
const (
	colWellGroup  = "WellGroup"
	colPosition   = "Position"
	colSpecimenID = "SpecimenID"
	colPtid       = "ParticipantID"
	colVisitID    = "VisitID"
	colDate       = "Date"
)

// subjectColumns are the columns consumed as subject tokens; everything
// else in the metadata file becomes a property of the derived material.
var subjectColumns = map[string]bool{
	colWellGroup: true, colPosition: true, colSpecimenID: true,
	colPtid: true, colVisitID: true, colDate: true,
}

// wellEntry is the gathered input of one well group: its subject tokens
// and any extra metadata properties.
type wellEntry struct {
	req   assay.ResolveRequest
	props assay.PropertyMap
}

// loadEntries gathers per-well-group entries, either from the sample
// metadata file or from manual entry. Structural problems are collected
// and reported together. The second return value is the metadata file
// as a data artifact, nil for manual entry.
func loadEntries(
	uc *assay.UploadContext,
	tmpl *designs.PlateTemplate,
) (map[string]wellEntry, *assay.Data, error) {
	if uc.SampleMetadataFile == "" {
		return manualEntries(uc), nil, nil
	}

	path := uc.SampleMetadataFile
	if !filepath.IsAbs(path) && uc.UploadDir != "" {
		path = filepath.Join(uc.UploadDir, path)
	}
	t, err := iotabular.ReadFile(path, nil)
	if err != nil {
		return nil, nil, err
	}

	if !t.HasColumn(colWellGroup) {
		return nil, nil, MetadataError(path,
			[]string{fmt.Sprintf("missing required column %q", colWellGroup)})
	}

	var problems []string
	entries := make(map[string]wellEntry, len(t.Rows))
	for i := range t.Rows {
		group := strings.TrimSpace(t.CellString(i, colWellGroup))
		if group == "" {
			problems = append(problems,
				fmt.Sprintf("row %d: blank well group name", i+1))
			continue
		}

		wg := tmpl.WellGroupByName(group)
		if wg == nil {
			problems = append(problems, fmt.Sprintf(
				"row %d: well group %q is not on the plate template",
				i+1, group))
			continue
		}
		if _, dup := entries[group]; dup {
			problems = append(problems, fmt.Sprintf(
				"row %d: well group %q appears more than once",
				i+1, group))
			continue
		}

		// The template's stored position is the source of truth; a
		// metadata file disagreeing with it is rejected.
		if pos := strings.TrimSpace(t.CellString(i, colPosition)); pos != "" &&
			!strings.EqualFold(pos, wg.Position) {
			problems = append(problems, fmt.Sprintf(
				"row %d: well group %q declares position %s, template has %s",
				i+1, group, pos, wg.Position))
			continue
		}

		entries[group] = wellEntry{
			req:   metadataRequest(t, i),
			props: metadataProps(t, i),
		}
	}
	if len(problems) > 0 {
		return nil, nil, MetadataError(path, problems)
	}

	d := &assay.Data{
		LSID: assay.NewLSID(assay.NamespaceData),
		Name: filepath.Base(path),
		File: path,
		Rows: t,
	}
	return entries, d, nil
}

func manualEntries(uc *assay.UploadContext) map[string]wellEntry {
	entries := make(map[string]wellEntry, len(uc.WellGroupEntries))
	for group, req := range uc.WellGroupEntries {
		entries[group] = wellEntry{req: req}
	}
	return entries
}

func metadataRequest(t *tabular.Table, row int) assay.ResolveRequest {
	req := assay.ResolveRequest{
		SpecimenID:    t.CellString(row, colSpecimenID),
		ParticipantID: t.CellString(row, colPtid),
	}
	if v, ok := t.CellFloat(row, colVisitID); ok {
		req.VisitID = &v
	}
	if d, ok := t.CellDate(row, colDate); ok {
		req.Date = &d
	}
	return req
}

func metadataProps(t *tabular.Table, row int) assay.PropertyMap {
	var props assay.PropertyMap
	for _, c := range t.Columns {
		if subjectColumns[c.Name] {
			continue
		}
		v := t.Cell(row, c.Name)
		if v == nil {
			continue
		}
		if props == nil {
			props = assay.PropertyMap{}
		}
		props[c.Name] = v
	}
	return props
}
