package ioingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/assaykit/assaydb/internal/ioresolve"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/designs"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// Transformer runs the transform script chain against an assembled
// run. Satisfied by iotransform.Chain.
type Transformer interface {
	Run(
		ctx context.Context,
		uc *assay.UploadContext,
		run *assay.Run,
		batchProps, runProps assay.PropertyMap,
	) (*assay.TransformResult, error)
}

// pipeline implements assay.Pipeline.
type pipeline struct {
	store       RunStore
	props       assay.PropertyStore
	resolvers   *ioresolve.Factory
	transformer Transformer
	plate       PlateAssembler
	hook        PostSaveHook
}

// New creates the run ingestion pipeline. props may be nil when no
// out-of-transaction property reads are possible (dry runs); plate may
// be nil when no plate-based design will be ingested; hook may be nil.
func New(
	store RunStore,
	props assay.PropertyStore,
	resolvers *ioresolve.Factory,
	transformer Transformer,
	plate PlateAssembler,
	hook PostSaveHook,
) assay.Pipeline {
	return &pipeline{
		store:       store,
		props:       props,
		resolvers:   resolvers,
		transformer: transformer,
		plate:       plate,
		hook:        hook,
	}
}

// IngestRun executes the linear state machine: build, assemble,
// resolve properties, transform, persist atomically, finalize.
// Failures before the persist step are reported without side effects;
// persist failures roll the transaction back. No step is retried.
func (p *pipeline) IngestRun(
	ctx context.Context,
	uc *assay.UploadContext,
	existing *assay.Batch,
) (*assay.Run, *assay.Batch, error) {
	design := uc.Design
	start := time.Now()

	// Step 1: build the run entity.
	run := p.buildRun(uc)
	slog.Info("Building run",
		"run", run.Name, "design", design.Name)

	// The resolver owns the invocation-scoped identity cache;
	// instantiating an indirection strategy may contribute extra input
	// data (the side table).
	resolver, extraInputs, err := p.resolvers.ForUpload(ctx, uc)
	if err != nil {
		return nil, nil, err
	}

	// Step 2: assemble inputs and outputs.
	if err := p.assemble(ctx, uc, run, resolver); err != nil {
		return nil, nil, err
	}
	run.InputData = append(run.InputData, extraInputs...)

	// Step 3: resolve properties and per-row subject identities.
	batchProps, err := p.batchProperties(ctx, uc, existing)
	if err != nil {
		return nil, nil, err
	}
	runProps := uc.RunProperties.Clone()
	if err := checkRequired(design, batchProps, runProps); err != nil {
		return nil, nil, err
	}

	identities := make(map[string][]assay.SubjectIdentity)
	primary := primaryData(uc, run)
	if primary != nil && primary.Rows != nil {
		ids, err := resolveRows(ctx, resolver, primary.Rows)
		if err != nil {
			return nil, nil, err
		}
		identities[primary.LSID] = ids
	}

	// Step 4: transform. Scripts run before the transaction opens so
	// external processes never execute while locks are held.
	result := &assay.TransformResult{}
	if p.transformer != nil {
		result, err = p.transformer.Run(ctx, uc, run, batchProps, runProps)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(result.RunProperties) > 0 {
		runProps = result.RunProperties
	}
	createBatch := existing == nil
	if createBatch && len(result.BatchProperties) > 0 {
		// Transform output supersedes submitted batch properties, but
		// only when this run is the one creating the batch.
		batchProps = result.BatchProperties
	}
	if result.Rows != nil && primary != nil {
		primary.TransformedRows = result.Rows
		ids, err := resolveRows(ctx, resolver, result.Rows)
		if err != nil {
			return nil, nil, err
		}
		identities[primary.LSID] = ids
	}
	for _, f := range result.OutputFiles {
		run.OutputData = append(run.OutputData, &assay.Data{
			LSID: assay.NewLSID(assay.NamespaceData),
			Name: filepath.Base(f),
			File: f,
		})
	}

	// Step 5: persist atomically.
	batch := existing
	if createBatch {
		batch = &assay.Batch{
			LSID:       assay.NewLSID(assay.NamespaceBatch),
			Name:       batchName(uc, run),
			DesignName: design.Name,
			Properties: batchProps,
			Created:    time.Now(),
		}
	}
	run.Batch = batch

	err = p.store.WithTx(ctx, func(tx RunTx) error {
		return p.persist(ctx, tx, uc, run, batch, createBatch,
			batchProps, runProps, identities)
	})
	if err != nil {
		return nil, nil, err
	}
	run.Status = assay.RunPersisted

	// Step 6: finalize outside the transaction. Batch name uniqueness
	// is best-effort by design; concurrent ingestions may race here.
	if createBatch {
		p.ensureUniqueBatchName(ctx, batch)
	}

	slog.Info("Run ingested",
		"run", run.Name,
		"batch", batch.Name,
		"duration", time.Since(start).Round(time.Millisecond).String())

	return run, batch, nil
}

func (p *pipeline) buildRun(uc *assay.UploadContext) *assay.Run {
	name := strings.TrimSpace(uc.RunName)
	if name == "" && uc.PrimaryFile != "" {
		// The run name defaults to the primary uploaded file's name.
		name = filepath.Base(uc.PrimaryFile)
	}
	return &assay.Run{
		LSID:       assay.NewLSID(assay.NamespaceRun),
		Name:       name,
		DesignName: uc.Design.Name,
		Container:  uc.Container,
		FileRoot:   uc.UploadDir,
		Status:     assay.RunBuilding,
		Properties: uc.RunProperties.Clone(),
		Created:    time.Now(),
	}
}

func (p *pipeline) assemble(
	ctx context.Context,
	uc *assay.UploadContext,
	run *assay.Run,
	resolver assay.Resolver,
) error {
	if uc.Design.Provider == "plate" {
		if p.plate == nil {
			return PlateUnsupportedError(uc.Design.Name)
		}
		asm, err := p.plate.Assemble(ctx, uc, resolver)
		if err != nil {
			return err
		}
		run.InputMaterials = append(run.InputMaterials, asm.InputMaterials...)
		run.OutputMaterials = append(run.OutputMaterials, asm.OutputMaterials...)
		run.InputData = append(run.InputData, asm.InputData...)
		// Plate assembly contributes materials and metadata inputs; the
		// uploaded results files still become the run's output data.
	}
	return assembleGeneral(uc, run)
}

// batchProperties returns the properties the transform chain sees as
// the batch's current state: the stored properties for a pre-existing
// batch, the submitted ones otherwise.
func (p *pipeline) batchProperties(
	ctx context.Context,
	uc *assay.UploadContext,
	existing *assay.Batch,
) (assay.PropertyMap, error) {
	if existing == nil {
		return uc.BatchProperties.Clone(), nil
	}
	if p.props != nil {
		stored, err := p.props.GetProperties(ctx, existing.LSID)
		if err != nil {
			return nil, err
		}
		if len(stored) > 0 {
			return stored, nil
		}
	}
	return existing.Properties.Clone(), nil
}

func (p *pipeline) persist(
	ctx context.Context,
	tx RunTx,
	uc *assay.UploadContext,
	run *assay.Run,
	batch *assay.Batch,
	createBatch bool,
	batchProps, runProps assay.PropertyMap,
	identities map[string][]assay.SubjectIdentity,
) error {
	// Batch properties are written on first creation only; a
	// pre-existing batch is never rewritten by a later run.
	if createBatch {
		if err := tx.InsertBatch(ctx, batch); err != nil {
			return err
		}
		if err := tx.InsertProperties(ctx, batch.LSID, batchProps); err != nil {
			return err
		}
	}

	if err := tx.InsertRun(ctx, run); err != nil {
		return err
	}
	if err := tx.InsertProperties(ctx, run.LSID, runProps); err != nil {
		return err
	}
	run.Properties = runProps

	// Materialize protocol-level linkage: inputs and outputs become
	// graph edges.
	for i, m := range run.InputMaterials {
		// Reused pre-existing materials keep their row; only fresh ones
		// are inserted.
		if m.ID == 0 {
			if err := tx.InsertMaterial(ctx, m); err != nil {
				return err
			}
		}
		if err := tx.InsertEdge(ctx, run.ID, m.LSID, "material", false, i); err != nil {
			return err
		}
		if len(m.Properties) > 0 {
			if err := tx.InsertProperties(ctx, m.LSID, m.Properties); err != nil {
				return err
			}
		}
	}
	for i, m := range run.OutputMaterials {
		if err := tx.InsertMaterial(ctx, m); err != nil {
			return err
		}
		if err := tx.InsertEdge(ctx, run.ID, m.LSID, "material", true, i); err != nil {
			return err
		}
		if len(m.Properties) > 0 {
			if err := tx.InsertProperties(ctx, m.LSID, m.Properties); err != nil {
				return err
			}
		}
	}
	for i, d := range run.InputData {
		if err := tx.InsertData(ctx, d); err != nil {
			return err
		}
		if err := tx.InsertEdge(ctx, run.ID, d.LSID, "data", false, i); err != nil {
			return err
		}
	}

	importer := newRowImporter(tx, run.ID, uc.Design, identities)
	for i, d := range run.OutputData {
		if err := tx.InsertData(ctx, d); err != nil {
			return err
		}
		if err := tx.InsertEdge(ctx, run.ID, d.LSID, "data", true, i); err != nil {
			return err
		}
		// Transformed data takes the transform-aware import path; the
		// rest goes through the content importer.
		if d.Transformed() {
			if err := importer.ImportTransformedRows(
				ctx, d, d.TransformedRows); err != nil {
				return err
			}
		} else if err := importer.ImportContent(ctx, d, d.File); err != nil {
			return err
		}
	}

	// Post-save validation can still abort the transaction.
	if p.hook != nil {
		if err := p.hook(ctx, tx, run); err != nil {
			return err
		}
	}
	return nil
}

// ensureUniqueBatchName renames the freshly created batch if another
// batch of the design already uses its name. Best-effort: failures are
// logged, never fatal.
func (p *pipeline) ensureUniqueBatchName(
	ctx context.Context,
	batch *assay.Batch,
) {
	exists, err := p.store.BatchNameExists(
		ctx, batch.DesignName, batch.Name, batch.ID)
	if err != nil {
		slog.Warn("Could not check batch name uniqueness",
			"batch", batch.Name, "error", err)
		return
	}
	if !exists {
		return
	}

	base := batch.Name
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		exists, err := p.store.BatchNameExists(
			ctx, batch.DesignName, candidate, batch.ID)
		if err != nil {
			slog.Warn("Could not check batch name uniqueness",
				"batch", candidate, "error", err)
			return
		}
		if !exists {
			if err := p.store.RenameBatch(ctx, batch.ID, candidate); err != nil {
				slog.Warn("Could not rename batch",
					"batch", base, "to", candidate, "error", err)
				return
			}
			batch.Name = candidate
			return
		}
	}
}

func batchName(uc *assay.UploadContext, run *assay.Run) string {
	if name := strings.TrimSpace(uc.BatchName); name != "" {
		return name
	}
	return run.Name + " Batch"
}

// checkRequired collects every missing required batch/run property and
// reports them together.
func checkRequired(
	design *designs.AssayDesign,
	batchProps, runProps assay.PropertyMap,
) error {
	var missing []string
	missing = appendMissing(missing, "batch", design.BatchFields, batchProps)
	missing = appendMissing(missing, "run", design.RunFields, runProps)
	if len(missing) > 0 {
		return RequiredPropertiesError(missing)
	}
	return nil
}

func appendMissing(
	missing []string,
	domain string,
	fields []designs.Field,
	props assay.PropertyMap,
) []string {
	for _, f := range fields {
		if !f.Required {
			continue
		}
		v, ok := props[f.Name]
		if !ok || strings.TrimSpace(tabular.AsString(v)) == "" {
			missing = append(missing,
				fmt.Sprintf("%s field %q", domain, f.Name))
		}
	}
	return missing
}

func primaryData(uc *assay.UploadContext, run *assay.Run) *assay.Data {
	for _, d := range run.OutputData {
		if d.File == uc.PrimaryFile {
			return d
		}
	}
	return nil
}
