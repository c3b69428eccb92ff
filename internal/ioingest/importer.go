package ioingest

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/assaykit/assaydb/internal/iotabular"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/designs"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// tabularExts are the extensions the content importer parses for
// result rows; anything else is stored as a file-only artifact.
var tabularExts = map[string]bool{
	".tsv": true, ".txt": true, ".csv": true, ".xlsx": true,
}

// rowImporter implements assay.DataImportHandler inside one persist
// transaction.
type rowImporter struct {
	tx         RunTx
	runID      int64
	design     *designs.AssayDesign
	identities map[string][]assay.SubjectIdentity
}

// newRowImporter creates the transaction-scoped import handler.
// identities maps data LSIDs to per-row subject identities.
func newRowImporter(
	tx RunTx,
	runID int64,
	design *designs.AssayDesign,
	identities map[string][]assay.SubjectIdentity,
) assay.DataImportHandler {
	return &rowImporter{
		tx:         tx,
		runID:      runID,
		design:     design,
		identities: identities,
	}
}

// ImportContent parses and stores a data artifact's row content. Data
// without tabular content is left as a file-only artifact.
func (ri *rowImporter) ImportContent(
	ctx context.Context,
	d *assay.Data,
	file string,
) error {
	rows := d.Rows
	if rows == nil {
		ext := strings.ToLower(filepath.Ext(file))
		if !tabularExts[ext] {
			return nil
		}
		var err error
		rows, err = iotabular.ReadFile(file, ri.design.ResultFields)
		if err != nil {
			return err
		}
		d.Rows = rows
	}
	return ri.tx.InsertResultRows(
		ctx, ri.runID, d, rows, ri.identities[d.LSID])
}

// ImportTransformedRows stores rows a transform stage already produced,
// bypassing file parsing.
func (ri *rowImporter) ImportTransformedRows(
	ctx context.Context,
	d *assay.Data,
	rows *tabular.Table,
) error {
	return ri.tx.InsertResultRows(
		ctx, ri.runID, d, rows, ri.identities[d.LSID])
}
