package ioplate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/assaydb/internal/ioplate"
	"github.com/assaykit/assaydb/internal/ioresolve"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/designs"
)

// fakeLookup serves pre-existing materials and taken names.
type fakeLookup struct {
	materials map[string]*assay.Material
	names     map[string]bool
}

func (f *fakeLookup) FindBySpecimen(
	_ context.Context,
	_, specimenID string,
) (*assay.Material, error) {
	return f.materials[specimenID], nil
}

func (f *fakeLookup) NameExists(
	_ context.Context,
	_, name string,
) (bool, error) {
	return f.names[name], nil
}

// fakeLineage records the single derivation call.
type fakeLineage struct {
	originals map[*assay.Material]string
	deriveds  map[*assay.Material]string
	info      *assay.DeriveInfo
	calls     int
}

func (f *fakeLineage) DeriveSamples(
	_ context.Context,
	originals map[*assay.Material]string,
	deriveds map[*assay.Material]string,
	info *assay.DeriveInfo,
) error {
	f.calls++
	f.originals = originals
	f.deriveds = deriveds
	f.info = info
	return nil
}

func plateDesign() *designs.AssayDesign {
	return &designs.AssayDesign{
		Name:     "NAb",
		Provider: "plate",
		Resolver: "direct",
		PlateTemplate: &designs.PlateTemplate{
			Rows:    8,
			Columns: 12,
			WellGroups: []designs.WellGroup{
				{Name: "Specimen1", Position: "A1"},
				{Name: "Specimen2", Position: "A2"},
			},
		},
	}
}

func metadataFile(t *testing.T, content string) (dir, name string) {
	t.Helper()
	dir = t.TempDir()
	name = "meta.tsv"
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
	require.NoError(t, err)
	return dir, name
}

func plateUpload(design *designs.AssayDesign, dir, metaFile string) *assay.UploadContext {
	return &assay.UploadContext{
		Design:             design,
		Container:          "/assays",
		User:               "tester",
		UploadDir:          dir,
		SampleMetadataFile: metaFile,
	}
}

func directResolver() assay.Resolver {
	return ioresolve.New("/assays", "", ioresolve.NewDirect())
}

func metadataCause(t *testing.T, err error) string {
	t.Helper()
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	return gnErr.Err.Error()
}

func TestAssembleSharesOriginalAcrossWellGroups(t *testing.T) {
	ctx := context.Background()
	dir, meta := metadataFile(t,
		"WellGroup\tPosition\tSpecimenID\tDilution\n"+
			"Specimen1\tA1\tS1\t1:10\n"+
			"Specimen2\tA2\tS1\t1:100\n")

	lineage := &fakeLineage{}
	s := ioplate.New(nil, lineage)
	uc := plateUpload(plateDesign(), dir, meta)

	asm, err := s.Assemble(ctx, uc, directResolver())
	require.NoError(t, err)

	// One specimen on two well groups: one original, two deriveds.
	require.Len(t, asm.InputMaterials, 1)
	require.Len(t, asm.OutputMaterials, 2)

	original := asm.InputMaterials[0]
	assert.Equal(t, "S1", original.Name)
	assert.Equal(t, "S1", original.SpecimenID)
	assert.False(t, original.Derived)

	first, second := asm.OutputMaterials[0], asm.OutputMaterials[1]
	assert.Equal(t, "S1-Specimen1", first.Name)
	assert.Equal(t, "S1-Specimen2", second.Name)
	assert.Equal(t, "urn:lsid:assaydb:Material:S1-Specimen1", first.LSID,
		"derived identifiers are deterministic, built from the probed name")
	for _, d := range []*assay.Material{first, second} {
		assert.True(t, d.Derived)
		assert.Equal(t, original.LSID, d.SourceLSID)
	}

	// Template positions and metadata extras land on the derived
	// materials.
	assert.Equal(t, "A1", first.Properties["Position"])
	assert.Equal(t, "1:10", first.Properties["Dilution"])
	assert.Equal(t, "A2", second.Properties["Position"])

	// The metadata file itself is recorded as a run input.
	require.Len(t, asm.InputData, 1)
	assert.Equal(t, "meta.tsv", asm.InputData[0].Name)

	// One derivation step covers the whole plate.
	assert.Equal(t, 1, lineage.calls)
	assert.Len(t, lineage.originals, 1)
	assert.Len(t, lineage.deriveds, 2)
	assert.Equal(t, "Sample Preparation", lineage.info.Name)
	assert.Equal(t, asm.InputData, lineage.info.DataInputs)
}

func TestAssembleReusesStoredOriginal(t *testing.T) {
	ctx := context.Background()
	dir, meta := metadataFile(t,
		"WellGroup\tSpecimenID\nSpecimen1\tS1\n")

	stored := &assay.Material{
		ID:         42,
		LSID:       assay.NewLSID(assay.NamespaceMaterial),
		Name:       "S1",
		SpecimenID: "S1",
	}
	lookup := &fakeLookup{materials: map[string]*assay.Material{"S1": stored}}
	s := ioplate.New(lookup, nil)

	asm, err := s.Assemble(ctx,
		plateUpload(plateDesign(), dir, meta), directResolver())
	require.NoError(t, err)

	require.Len(t, asm.InputMaterials, 1)
	assert.Same(t, stored, asm.InputMaterials[0],
		"a known specimen reuses its stored material")
}

func TestAssembleProbesDerivedNameCollisions(t *testing.T) {
	ctx := context.Background()
	dir, meta := metadataFile(t,
		"WellGroup\tSpecimenID\nSpecimen1\tS1\n")

	lookup := &fakeLookup{names: map[string]bool{
		"S1-Specimen1":   true,
		"S1-Specimen1-2": true,
	}}
	s := ioplate.New(lookup, nil)

	asm, err := s.Assemble(ctx,
		plateUpload(plateDesign(), dir, meta), directResolver())
	require.NoError(t, err)

	require.Len(t, asm.OutputMaterials, 1)
	assert.Equal(t, "S1-Specimen1-3", asm.OutputMaterials[0].Name)
}

func TestAssembleRejectsInvalidIdentifier(t *testing.T) {
	ctx := context.Background()
	dir, meta := metadataFile(t,
		"WellGroup\tSpecimenID\nSpecimen1\tS 1\n")

	s := ioplate.New(nil, nil)
	_, err := s.Assemble(ctx,
		plateUpload(plateDesign(), dir, meta), directResolver())
	require.Error(t, err)
	assert.Contains(t, metadataCause(t, err), "S 1-Specimen1")
}

func TestAssemblePositionMismatch(t *testing.T) {
	ctx := context.Background()
	dir, meta := metadataFile(t,
		"WellGroup\tPosition\tSpecimenID\nSpecimen1\tB5\tS1\n")

	s := ioplate.New(nil, nil)
	_, err := s.Assemble(ctx,
		plateUpload(plateDesign(), dir, meta), directResolver())
	require.Error(t, err)

	text := metadataCause(t, err)
	assert.Contains(t, text, "declares position B5")
	assert.Contains(t, text, "template has A1")
}

func TestAssembleCollectsMetadataProblems(t *testing.T) {
	ctx := context.Background()
	dir, meta := metadataFile(t,
		"WellGroup\tSpecimenID\n"+
			"\tS1\n"+
			"Unknown\tS2\n"+
			"Specimen1\tS3\n"+
			"Specimen1\tS4\n")

	s := ioplate.New(nil, nil)
	_, err := s.Assemble(ctx,
		plateUpload(plateDesign(), dir, meta), directResolver())
	require.Error(t, err)

	// All problems in one report.
	text := metadataCause(t, err)
	assert.Contains(t, text, "row 1: blank well group")
	assert.Contains(t, text, `well group "Unknown"`)
	assert.Contains(t, text, "more than once")
}

func TestAssembleManualEntries(t *testing.T) {
	ctx := context.Background()
	s := ioplate.New(nil, nil)

	uc := plateUpload(plateDesign(), "", "")
	uc.WellGroupEntries = map[string]assay.ResolveRequest{
		"Specimen2": {SpecimenID: "S7", ParticipantID: "P-1"},
	}

	asm, err := s.Assemble(ctx, uc, directResolver())
	require.NoError(t, err)

	// Only the entered well group derives a sample; no metadata file
	// means no data input.
	require.Len(t, asm.OutputMaterials, 1)
	assert.Equal(t, "S7-Specimen2", asm.OutputMaterials[0].Name)
	assert.Equal(t, "P-1", asm.OutputMaterials[0].Properties["ParticipantID"])
	assert.Empty(t, asm.InputData)
}

func TestAssembleWithoutTemplate(t *testing.T) {
	ctx := context.Background()
	s := ioplate.New(nil, nil)

	design := plateDesign()
	design.PlateTemplate = nil

	_, err := s.Assemble(ctx, plateUpload(design, "", ""), directResolver())
	require.Error(t, err)
}
