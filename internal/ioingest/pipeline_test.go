package ioingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/assaydb/internal/ioingest"
	"github.com/assaykit/assaydb/internal/ioresolve"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/designs"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// fakeTransformer returns a canned transform result.
type fakeTransformer struct {
	result *assay.TransformResult
	calls  int
}

func (f *fakeTransformer) Run(
	_ context.Context,
	_ *assay.UploadContext,
	_ *assay.Run,
	_, _ assay.PropertyMap,
) (*assay.TransformResult, error) {
	f.calls++
	if f.result == nil {
		return &assay.TransformResult{}, nil
	}
	return f.result, nil
}

func resultTable(rows ...tabular.Row) *tabular.Table {
	t := tabular.New(
		tabular.Column{Name: "SpecimenID"},
		tabular.Column{Name: "Titer", Kind: tabular.Numeric},
	)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func elisaDesign() *designs.AssayDesign {
	return &designs.AssayDesign{
		Name:     "ELISA",
		Provider: "general",
		Resolver: "direct",
	}
}

func uploadContext(design *designs.AssayDesign) *assay.UploadContext {
	return &assay.UploadContext{
		Design:      design,
		Container:   "/assays",
		User:        "tester",
		PrimaryFile: "results.tsv",
		Rows: resultTable(
			tabular.Row{"SP-1", "10"},
			tabular.Row{"SP-1", "12"},
			tabular.Row{"SP-2", "7"},
		),
	}
}

func newPipeline(
	store *ioingest.MemoryStore,
	transformer ioingest.Transformer,
	hook ioingest.PostSaveHook,
) assay.Pipeline {
	return ioingest.New(store, nil,
		ioresolve.NewFactory(nil), transformer, nil, hook)
}

func causeText(t *testing.T, err error) string {
	t.Helper()
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	return gnErr.Err.Error()
}

func TestIngestRunCreatesBatchAndRows(t *testing.T) {
	ctx := context.Background()
	store := ioingest.NewMemoryStore()
	p := newPipeline(store, nil, nil)

	uc := uploadContext(elisaDesign())
	uc.BatchProperties = assay.PropertyMap{"Lab": "CPL"}

	run, batch, err := p.IngestRun(ctx, uc, nil)
	require.NoError(t, err)

	// Run name defaults to the primary file name, the batch name to the
	// run name.
	assert.Equal(t, "results.tsv", run.Name)
	assert.Equal(t, "results.tsv Batch", batch.Name)
	assert.Equal(t, assay.RunPersisted, run.Status)

	require.Len(t, store.Batches, 1)
	require.Len(t, store.Runs, 1)
	assert.Equal(t, "CPL", store.Properties[batch.LSID]["Lab"])

	// Three rows, each with a resolved identity; the two SP-1 rows came
	// from the same cache entry.
	require.Len(t, store.Data, 1)
	rows := store.ResultRows[store.Data[0].LSID]
	require.Len(t, rows, 3)
	assert.Equal(t, rows[0].Identity, rows[1].Identity)
	assert.Equal(t, "SP-1", rows[0].Identity.SpecimenID)
	assert.Equal(t, "SP-2", rows[2].Identity.SpecimenID)

	// The primary data is linked to the run as an output edge.
	require.Len(t, store.Edges, 1)
	assert.Equal(t, run.ID, store.Edges[0].RunID)
	assert.True(t, store.Edges[0].Output)
	assert.Equal(t, "data", store.Edges[0].Kind)
}

func TestIngestRunExistingBatchNotRewritten(t *testing.T) {
	ctx := context.Background()
	store := ioingest.NewMemoryStore()
	existing := &assay.Batch{
		ID:         99,
		LSID:       assay.NewLSID(assay.NamespaceBatch),
		Name:       "March batch",
		DesignName: "ELISA",
		Properties: assay.PropertyMap{"Lab": "CPL"},
	}
	store.Batches = append(store.Batches, existing)

	// The transform overrides batch properties, but the run joins a
	// pre-existing batch, so the override must be discarded.
	transformer := &fakeTransformer{result: &assay.TransformResult{
		BatchProperties: assay.PropertyMap{"Lab": "other"},
	}}
	p := newPipeline(store, transformer, nil)

	run, batch, err := p.IngestRun(ctx, uploadContext(elisaDesign()), existing)
	require.NoError(t, err)

	assert.Same(t, existing, batch)
	assert.Equal(t, "March batch", batch.Name)
	require.Len(t, store.Batches, 1, "no second batch row")
	assert.NotContains(t, store.Properties, existing.LSID,
		"a pre-existing batch's properties are never rewritten")

	runs := store.BatchRuns(existing.ID)
	require.Len(t, runs, 1)
	assert.Equal(t, run.LSID, runs[0].LSID)
}

func TestIngestRunTransformOverridesApplied(t *testing.T) {
	ctx := context.Background()
	store := ioingest.NewMemoryStore()
	transformer := &fakeTransformer{result: &assay.TransformResult{
		BatchProperties: assay.PropertyMap{"Lab": "transformed"},
		RunProperties:   assay.PropertyMap{"QCStatus": "passed"},
		Rows:            resultTable(tabular.Row{"SP-9", "3"}),
	}}
	p := newPipeline(store, transformer, nil)

	uc := uploadContext(elisaDesign())
	uc.BatchProperties = assay.PropertyMap{"Lab": "CPL"}

	run, batch, err := p.IngestRun(ctx, uc, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, transformer.calls)

	// This run creates the batch, so the transform's batch properties
	// win over the submitted ones.
	assert.Equal(t, "transformed", store.Properties[batch.LSID]["Lab"])
	assert.Equal(t, "passed", store.Properties[run.LSID]["QCStatus"])

	// The transformed rows replaced the parsed ones, identities
	// included.
	rows := store.ResultRows[store.Data[0].LSID]
	require.Len(t, rows, 1)
	assert.Equal(t, "SP-9", rows[0].Identity.SpecimenID)
}

func TestIngestRunTransformOutputFiles(t *testing.T) {
	ctx := context.Background()
	store := ioingest.NewMemoryStore()
	transformer := &fakeTransformer{result: &assay.TransformResult{
		OutputFiles: []string{"/work/qc-report.pdf"},
	}}
	p := newPipeline(store, transformer, nil)

	_, _, err := p.IngestRun(ctx, uploadContext(elisaDesign()), nil)
	require.NoError(t, err)

	// Primary file plus the script's extra output.
	require.Len(t, store.Data, 2)
	assert.Equal(t, "qc-report.pdf", store.Data[1].Name)
	assert.NotContains(t, store.ResultRows, store.Data[1].LSID,
		"file-only artifacts carry no result rows")
}

func TestIngestRunMissingRequiredProperties(t *testing.T) {
	ctx := context.Background()
	store := ioingest.NewMemoryStore()
	p := newPipeline(store, nil, nil)

	design := elisaDesign()
	design.BatchFields = []designs.Field{
		{Name: "Lab", Type: "string", Required: true},
	}
	design.RunFields = []designs.Field{
		{Name: "Operator", Type: "string", Required: true},
	}

	_, _, err := p.IngestRun(ctx, uploadContext(design), nil)
	require.Error(t, err)

	// Both missing fields are reported in one pass.
	text := causeText(t, err)
	assert.Contains(t, text, `batch field "Lab"`)
	assert.Contains(t, text, `run field "Operator"`)

	assert.Empty(t, store.Runs, "nothing persisted on validation failure")
	assert.Empty(t, store.Batches)
}

func TestIngestRunRollsBackOnHookFailure(t *testing.T) {
	ctx := context.Background()
	store := ioingest.NewMemoryStore()
	hook := func(_ context.Context, _ ioingest.RunTx, _ *assay.Run) error {
		return errors.New("post-save validation failed")
	}
	p := newPipeline(store, nil, hook)

	_, _, err := p.IngestRun(ctx, uploadContext(elisaDesign()), nil)
	require.Error(t, err)

	// All-or-nothing: the hook fired inside the transaction, so every
	// staged write is discarded.
	assert.Empty(t, store.Runs)
	assert.Empty(t, store.Batches)
	assert.Empty(t, store.Data)
	assert.Empty(t, store.Properties)
	assert.Empty(t, store.ResultRows)
}

func TestIngestRunRenamesConflictingBatch(t *testing.T) {
	ctx := context.Background()
	store := ioingest.NewMemoryStore()
	for _, name := range []string{"results.tsv Batch", "results.tsv Batch-2"} {
		store.Batches = append(store.Batches, &assay.Batch{
			ID:         int64(len(store.Batches)) + 900,
			DesignName: "ELISA",
			Name:       name,
		})
	}
	p := newPipeline(store, nil, nil)

	_, batch, err := p.IngestRun(ctx, uploadContext(elisaDesign()), nil)
	require.NoError(t, err)

	// Post-commit uniqueness pass probes suffixes until a free name.
	assert.Equal(t, "results.tsv Batch-3", batch.Name)
}

func TestIngestRunExplicitNames(t *testing.T) {
	ctx := context.Background()
	store := ioingest.NewMemoryStore()
	p := newPipeline(store, nil, nil)

	uc := uploadContext(elisaDesign())
	uc.RunName = "Plate 7 rerun"
	uc.BatchName = "March 2026"

	run, batch, err := p.IngestRun(ctx, uc, nil)
	require.NoError(t, err)
	assert.Equal(t, "Plate 7 rerun", run.Name)
	assert.Equal(t, "March 2026", batch.Name)
}

func TestIngestRunNoFiles(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(ioingest.NewMemoryStore(), nil, nil)

	uc := uploadContext(elisaDesign())
	uc.PrimaryFile = ""
	uc.Rows = nil

	_, _, err := p.IngestRun(ctx, uc, nil)
	require.Error(t, err)
}

// fakePlate returns a canned assembly.
type fakePlate struct {
	asm *ioingest.PlateAssembly
}

func (f *fakePlate) Assemble(
	_ context.Context,
	_ *assay.UploadContext,
	_ assay.Resolver,
) (*ioingest.PlateAssembly, error) {
	if f.asm == nil {
		return &ioingest.PlateAssembly{}, nil
	}
	return f.asm, nil
}

func TestIngestRunPlateKeepsUploadedFiles(t *testing.T) {
	ctx := context.Background()
	store := ioingest.NewMemoryStore()

	original := &assay.Material{
		LSID: assay.NewLSID(assay.NamespaceMaterial),
		Name: "S1", SpecimenID: "S1",
	}
	derived := &assay.Material{
		LSID: assay.NewLSID(assay.NamespaceMaterial),
		Name: "S1-Specimen1", SpecimenID: "S1",
		Derived: true, SourceLSID: original.LSID,
	}
	plate := &fakePlate{asm: &ioingest.PlateAssembly{
		InputMaterials:  []*assay.Material{original},
		OutputMaterials: []*assay.Material{derived},
	}}
	p := ioingest.New(store, nil,
		ioresolve.NewFactory(nil), nil, plate, nil)

	design := elisaDesign()
	design.Provider = "plate"

	run, _, err := p.IngestRun(ctx, uploadContext(design), nil)
	require.NoError(t, err)

	// The primary results file and its rows survive plate assembly.
	require.NotEmpty(t, run.OutputData)
	require.Len(t, store.Data, 1)
	assert.Equal(t, "results.tsv", store.Data[0].Name)
	assert.Len(t, store.ResultRows[store.Data[0].LSID], 3)

	// Plate materials are persisted alongside the data.
	require.Len(t, store.Materials, 2)
	assert.Equal(t, original.LSID, store.Materials[1].SourceLSID)
}

func TestIngestRunPlateWithoutAssembler(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(ioingest.NewMemoryStore(), nil, nil)

	design := elisaDesign()
	design.Provider = "plate"

	_, _, err := p.IngestRun(ctx, uploadContext(design), nil)
	require.Error(t, err)
}
