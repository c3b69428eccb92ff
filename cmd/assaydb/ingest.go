package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/assaykit/assaydb/internal/iodb"
	"github.com/assaykit/assaydb/internal/iodesigns"
	"github.com/assaykit/assaydb/internal/ioingest"
	"github.com/assaykit/assaydb/internal/iolineage"
	"github.com/assaykit/assaydb/internal/iomaterial"
	"github.com/assaykit/assaydb/internal/ioplate"
	"github.com/assaykit/assaydb/internal/ioproperty"
	"github.com/assaykit/assaydb/internal/ioquery"
	"github.com/assaykit/assaydb/internal/ioresolve"
	"github.com/assaykit/assaydb/internal/iotabular"
	"github.com/assaykit/assaydb/internal/iotransform"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/config"
	"github.com/assaykit/assaydb/pkg/db"
	"github.com/assaykit/assaydb/pkg/designs"
)

var (
	ingestDesign      string
	ingestFile        string
	ingestFiles       []string
	ingestRunName     string
	ingestBatchName   string
	ingestBatchProps  []string
	ingestRunProps    []string
	ingestTargetStudy string
	ingestContainer   string
	ingestUser        string
	ingestSampleMeta  string
	ingestDryRun      bool
)

func getIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest one assay run",
		Long: `Ingest one assay run into the database.

This command:
  1. Loads the assay design from designs.yaml
  2. Parses the primary results file
  3. Resolves subject identities per the design's resolver
  4. Runs the design's transform scripts, if any
  5. Persists the run, its batch, materials, data and result rows
     in one transaction

With --batch-name the run joins an existing batch of the same design;
otherwise a new batch is created. With --dry-run everything happens
against an in-memory store and nothing reaches the database.

Examples:
  assaydb ingest --design "ELISA" --file results.tsv
  assaydb ingest --design "ELISA" --file results.tsv \
    --batch-name "March Batch" --batch-prop Lab=CPL
  assaydb ingest --design "NAb Plate" --file plate1.txt \
    --sample-metadata samples.xlsx --dry-run`,
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestDesign, "design", "",
		"assay design name from designs.yaml")
	cmd.Flags().StringVar(&ingestFile, "file", "",
		"primary results file (required)")
	cmd.Flags().StringSliceVar(&ingestFiles, "files", nil,
		"additional uploaded files")
	cmd.Flags().StringVar(&ingestRunName, "run-name", "",
		"run name (default: primary file name)")
	cmd.Flags().StringVar(&ingestBatchName, "batch-name", "",
		"batch name; joins the batch if it already exists")
	cmd.Flags().StringArrayVar(&ingestBatchProps, "batch-prop", nil,
		"batch property as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&ingestRunProps, "run-prop", nil,
		"run property as name=value (repeatable)")
	cmd.Flags().StringVar(&ingestTargetStudy, "target-study", "",
		"target study container for subject resolution")
	cmd.Flags().StringVar(&ingestContainer, "container", "/",
		"run container path")
	cmd.Flags().StringVar(&ingestUser, "user", os.Getenv("USER"),
		"acting user, bound to transform script sessions")
	cmd.Flags().StringVar(&ingestSampleMeta, "sample-metadata", "",
		"sample metadata file for plate-based designs")
	cmd.Flags().BoolVar(&ingestDryRun, "dry-run", false,
		"ingest into an in-memory store, leave the database untouched")

	// --design may come from the config file's ingest section instead.
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := getConfig()

	applyIngestDefaults(&cfg.Ingest)
	if ingestDesign == "" {
		return fmt.Errorf(
			"no assay design given; use --design or set ingest.design_name")
	}

	dc, err := iodesigns.New(cfg).Load()
	if err != nil {
		return err
	}
	for _, w := range dc.Warnings {
		fmt.Printf("Warning: design %q: %s: %s\n",
			w.DesignName, w.Field, w.Message)
	}

	design := dc.ByName(ingestDesign)
	if design == nil {
		names := make([]string, len(dc.AssayDesigns))
		for i := range dc.AssayDesigns {
			names[i] = dc.AssayDesigns[i].Name
		}
		return iodesigns.DesignNotFoundError(ingestDesign, names)
	}

	uc, err := buildUploadContext(cfg, design)
	if err != nil {
		return err
	}

	if ingestDryRun {
		return ingestDry(ctx, cfg, uc)
	}
	return ingestDB(ctx, cfg, uc)
}

// buildUploadContext validates the uploaded files and parses the
// primary one.
func buildUploadContext(
	cfg *config.Config,
	design *designs.AssayDesign,
) (*assay.UploadContext, error) {
	primary, err := filepath.Abs(ingestFile)
	if err != nil {
		return nil, fmt.Errorf("bad primary file path: %w", err)
	}

	files := append([]string{primary}, ingestFiles...)
	bar := pb.Full.Start(len(files))
	bar.Set(pb.CleanOnFinish, true)
	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("bad file path %s: %w", f, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("cannot read uploaded file: %w", err)
		}
		files[i] = abs
		bar.Increment()
	}
	bar.Finish()

	rows, err := iotabular.ReadFile(primary, design.ResultFields)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Parsed %s rows from %s\n",
		humanize.Comma(int64(len(rows.Rows))), filepath.Base(primary))

	return &assay.UploadContext{
		Design:             design,
		Container:          ingestContainer,
		User:               ingestUser,
		UploadDir:          filepath.Dir(primary),
		PrimaryFile:        primary,
		UploadedFiles:      files,
		RunName:            ingestRunName,
		BatchName:          ingestBatchName,
		BatchProperties:    parseProps(ingestBatchProps),
		RunProperties:      parseProps(ingestRunProps),
		TargetStudy:        ingestTargetStudy,
		Rows:               rows,
		SampleMetadataFile: ingestSampleMeta,
	}, nil
}

func ingestDB(
	ctx context.Context,
	cfg *config.Config,
	uc *assay.UploadContext,
) error {
	var op db.Operator = iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return err
	}
	defer op.Close()
	pool := op.Pool()

	store := ioingest.NewPgxStore(pool, cfg.Database.BatchSize)
	props := ioproperty.New(pool)
	selector := ioquery.New(pool)
	resolvers := ioresolve.NewFactory(selector)
	chain := iotransform.New(
		iotransform.NewRegistry(&cfg.Transform),
		iotransform.NewExchange(),
		iotransform.NewSessionFactory(),
		cfg.Transform.BaseServerURL,
		config.CacheDir(cfg.HomeDir),
	)
	plate := ioplate.New(iomaterial.New(pool), iolineage.New(pool))

	pipeline := ioingest.New(store, props, resolvers, chain, plate, nil)

	existing, err := findExistingBatch(ctx, store, uc)
	if err != nil {
		return err
	}

	run, batch, err := pipeline.IngestRun(ctx, uc, existing)
	if err != nil {
		return err
	}

	printSummary(run, batch, existing != nil)
	return nil
}

// ingestDry runs the full pipeline against the in-memory store.
// Transform scripts still execute; the database is never touched.
func ingestDry(
	ctx context.Context,
	cfg *config.Config,
	uc *assay.UploadContext,
) error {
	store := ioingest.NewMemoryStore()
	resolvers := ioresolve.NewFactory(nil)
	chain := iotransform.New(
		iotransform.NewRegistry(&cfg.Transform),
		iotransform.NewExchange(),
		iotransform.NewSessionFactory(),
		cfg.Transform.BaseServerURL,
		config.CacheDir(cfg.HomeDir),
	)
	plate := ioplate.New(nil, nil)

	pipeline := ioingest.New(store, nil, resolvers, chain, plate, nil)

	run, batch, err := pipeline.IngestRun(ctx, uc, nil)
	if err != nil {
		return err
	}

	fmt.Println("Dry run: nothing was written to the database.")
	printSummary(run, batch, false)
	return nil
}

func findExistingBatch(
	ctx context.Context,
	store ioingest.RunStore,
	uc *assay.UploadContext,
) (*assay.Batch, error) {
	if ingestBatchName == "" {
		return nil, nil
	}
	return store.FindBatch(ctx, uc.Design.Name, ingestBatchName)
}

func printSummary(run *assay.Run, batch *assay.Batch, joined bool) {
	rowCount := 0
	for _, d := range run.OutputData {
		if t := d.TransformedRows; t != nil {
			rowCount += len(t.Rows)
		} else if d.Rows != nil {
			rowCount += len(d.Rows.Rows)
		}
	}

	fmt.Println("\n✓ Run ingestion complete!")
	fmt.Printf("  Run:    %s\n", run.Name)
	if joined {
		fmt.Printf("  Batch:  %s (existing)\n", batch.Name)
	} else {
		fmt.Printf("  Batch:  %s (created)\n", batch.Name)
	}
	fmt.Printf("  Rows:   %s\n", humanize.Comma(int64(rowCount)))
	fmt.Printf("  Data:   %d files\n", len(run.OutputData))
	if n := len(run.OutputMaterials); n > 0 {
		fmt.Printf("  Derived samples: %d\n", n)
	}
}

// applyIngestDefaults fills flag values left empty from the ingest
// section of the config file. Flags win, per the usual precedence.
func applyIngestDefaults(ing *config.IngestConfig) {
	if ingestDesign == "" {
		ingestDesign = ing.DesignName
	}
	if ingestRunName == "" {
		ingestRunName = ing.RunName
	}
	if ingestTargetStudy == "" {
		ingestTargetStudy = ing.TargetStudy
	}
}

// parseProps parses repeated name=value flags into a property map.
func parseProps(pairs []string) assay.PropertyMap {
	props := assay.PropertyMap{}
	for _, p := range pairs {
		name, value, found := strings.Cut(p, "=")
		if !found {
			continue
		}
		props[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return props
}
