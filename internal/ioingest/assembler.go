package ioingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// Result-table column names carrying subject tokens.
const (
	colSpecimenID  = "SpecimenID"
	colPtid        = "ParticipantID"
	colVisitID     = "VisitID"
	colDate        = "Date"
	colTargetStudy = "TargetStudy"
)

// PlateAssembly is what the plate-based assembler contributes to a
// run: original (input) materials, derived (output) materials and any
// metadata file recorded as a data input.
type PlateAssembly struct {
	InputMaterials  []*assay.Material
	OutputMaterials []*assay.Material
	InputData       []*assay.Data
}

// PlateAssembler replaces the file-driven assembly step for plate-based
// designs (well-group derivation contributes the run's materials).
type PlateAssembler interface {
	Assemble(
		ctx context.Context,
		uc *assay.UploadContext,
		resolver assay.Resolver,
	) (*PlateAssembly, error)
}

// assembleGeneral collects the run's output data for non-plate designs:
// every uploaded file, plus files in the upload directory sharing the
// primary file's base name by naming convention. The primary file
// carries the parsed row set.
func assembleGeneral(uc *assay.UploadContext, run *assay.Run) error {
	if uc.PrimaryFile == "" && len(uc.UploadedFiles) == 0 {
		return NoFilesError()
	}

	files := make([]string, 0, len(uc.UploadedFiles)+1)
	seen := make(map[string]bool)

	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	add(uc.PrimaryFile)
	for _, f := range uc.UploadedFiles {
		add(f)
	}
	for _, f := range relatedFiles(uc.UploadDir, uc.PrimaryFile) {
		add(f)
	}

	for _, f := range files {
		d := &assay.Data{
			LSID: assay.NewLSID(assay.NamespaceData),
			Name: filepath.Base(f),
			File: f,
		}
		if f == uc.PrimaryFile {
			d.Rows = uc.Rows
		}
		run.OutputData = append(run.OutputData, d)
	}

	return nil
}

// relatedFiles returns files in dir whose names share the primary
// file's base name (e.g. "plate1.txt" pulls in "plate1.jpg").
func relatedFiles(dir, primary string) []string {
	if dir == "" || primary == "" {
		return nil
	}
	base := strings.TrimSuffix(
		filepath.Base(primary), filepath.Ext(primary))
	if base == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var res []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.EqualFold(stem, base) {
			res = append(res, filepath.Join(dir, name))
		}
	}
	return res
}

// rowRequest extracts the raw subject tokens of one result row.
func rowRequest(t *tabular.Table, row int) assay.ResolveRequest {
	req := assay.ResolveRequest{
		SpecimenID:          t.CellString(row, colSpecimenID),
		ParticipantID:       t.CellString(row, colPtid),
		TargetStudyOverride: t.CellString(row, colTargetStudy),
	}
	if v, ok := t.CellFloat(row, colVisitID); ok {
		req.VisitID = &v
	}
	if d, ok := t.CellDate(row, colDate); ok {
		req.Date = &d
	}
	return req
}

// resolveRows resolves a subject identity for every row of a result
// table. Identical tuples hit the resolver cache and yield identical
// identities.
func resolveRows(
	ctx context.Context,
	resolver assay.Resolver,
	t *tabular.Table,
) ([]assay.SubjectIdentity, error) {
	if t == nil {
		return nil, nil
	}
	res := make([]assay.SubjectIdentity, len(t.Rows))
	for i := range t.Rows {
		id, err := resolver.Resolve(ctx, rowRequest(t, i))
		if err != nil {
			return nil, err
		}
		res[i] = id
	}
	return res, nil
}
