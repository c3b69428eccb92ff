package ioingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultCopyBatch bounds result-row copies when no batch size is
// configured.
const defaultCopyBatch = 5_000

// pgxStore implements RunStore against the normalized PostgreSQL
// store.
type pgxStore struct {
	pool      *pgxpool.Pool
	batchSize int
}

// NewPgxStore creates a RunStore over the given connection pool.
// batchSize bounds how many result rows one CopyFrom call carries;
// zero or negative falls back to the default.
func NewPgxStore(pool *pgxpool.Pool, batchSize int) RunStore {
	if batchSize <= 0 {
		batchSize = defaultCopyBatch
	}
	return &pgxStore{pool: pool, batchSize: batchSize}
}

func (s *pgxStore) WithTx(
	ctx context.Context,
	fn func(tx RunTx) error,
) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return PersistError("begin transaction", err)
	}

	ptx := &pgxTx{tx: tx, batchSize: s.batchSize}
	if err := fn(ptx); err != nil {
		// Rollback error is secondary; the original failure is what
		// the caller needs to see.
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return PersistError("commit transaction", err)
	}
	return nil
}

func (s *pgxStore) BatchNameExists(
	ctx context.Context,
	designName, name string,
	excludeID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT FROM batches
			WHERE design_name = $1 AND name = $2 AND id <> $3
		)
	`
	var exists bool
	err := s.pool.QueryRow(ctx, query, designName, name, excludeID).
		Scan(&exists)
	if err != nil {
		return false, PersistError("check batch name", err)
	}
	return exists, nil
}

func (s *pgxStore) RenameBatch(
	ctx context.Context,
	batchID int64,
	name string,
) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE batches SET name = $1 WHERE id = $2", name, batchID)
	if err != nil {
		return PersistError("rename batch", err)
	}
	return nil
}

func (s *pgxStore) FindBatch(
	ctx context.Context,
	designName, name string,
) (*assay.Batch, error) {
	query := `
		SELECT id, lsid, name, created_at
		FROM batches
		WHERE design_name = $1 AND name = $2
		ORDER BY id
		LIMIT 1
	`
	b := assay.Batch{DesignName: designName}
	err := s.pool.QueryRow(ctx, query, designName, name).
		Scan(&b.ID, &b.LSID, &b.Name, &b.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, PersistError("find batch", err)
	}
	return &b, nil
}

// pgxTx implements RunTx over one pgx transaction.
type pgxTx struct {
	tx        pgx.Tx
	batchSize int
}

func (t *pgxTx) InsertBatch(ctx context.Context, b *assay.Batch) error {
	query := `
		INSERT INTO batches (lsid, name, design_name, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := t.tx.QueryRow(ctx, query,
		b.LSID, b.Name, b.DesignName, b.Created).Scan(&b.ID)
	if err != nil {
		return BatchSaveError(b.Name, err)
	}
	return nil
}

func (t *pgxTx) InsertRun(ctx context.Context, r *assay.Run) error {
	query := `
		INSERT INTO runs
			(lsid, name, design_name, container, file_root, batch_id,
			 created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := t.tx.QueryRow(ctx, query,
		r.LSID, r.Name, r.DesignName, r.Container, r.FileRoot,
		r.Batch.ID, r.Created).Scan(&r.ID)
	if err != nil {
		return RunSaveError(r.Name, err)
	}
	return nil
}

func (t *pgxTx) InsertMaterial(ctx context.Context, m *assay.Material) error {
	query := `
		INSERT INTO materials
			(lsid, name, specimen_id, derived, source_lsid, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6)
		RETURNING id
	`
	err := t.tx.QueryRow(ctx, query,
		m.LSID, m.Name, m.SpecimenID, m.Derived, m.SourceLSID,
		time.Now()).Scan(&m.ID)
	if err != nil {
		return PersistError("insert material "+m.Name, err)
	}
	return nil
}

func (t *pgxTx) InsertData(ctx context.Context, d *assay.Data) error {
	query := `
		INSERT INTO data_files (lsid, name, file, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := t.tx.QueryRow(ctx, query,
		d.LSID, d.Name, d.File, time.Now()).Scan(&d.ID)
	if err != nil {
		return PersistError("insert data "+d.Name, err)
	}
	return nil
}

func (t *pgxTx) InsertEdge(
	ctx context.Context,
	runID int64,
	entityLSID, kind string,
	output bool,
	ordinal int,
) error {
	query := `
		INSERT INTO run_edges (run_id, entity_lsid, kind, output, ordinal)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := t.tx.Exec(ctx, query, runID, entityLSID, kind, output, ordinal)
	if err != nil {
		return PersistError("insert run edge", err)
	}
	return nil
}

func (t *pgxTx) InsertProperties(
	ctx context.Context,
	entityLSID string,
	props assay.PropertyMap,
) error {
	query := `
		INSERT INTO properties
			(entity_lsid, name, string_value, float_value, date_value)
		VALUES ($1, $2, $3, $4, $5)
	`
	for name, value := range props {
		sv, fv, dv := typedValue(value)
		_, err := t.tx.Exec(ctx, query, entityLSID, name, sv, fv, dv)
		if err != nil {
			return PropertySaveError(entityLSID, name, err)
		}
	}
	return nil
}

func (t *pgxTx) InsertResultRows(
	ctx context.Context,
	runID int64,
	d *assay.Data,
	rows *tabular.Table,
	identities []assay.SubjectIdentity,
) error {
	if rows == nil || len(rows.Rows) == 0 {
		return nil
	}

	copyRows := make([][]any, 0, len(rows.Rows))
	for i := range rows.Rows {
		var id assay.SubjectIdentity
		if i < len(identities) {
			id = identities[i]
		}

		fields, err := rowFields(rows, i)
		if err != nil {
			return PersistError("encode result row", err)
		}

		var ptid, specimen *string
		if id.ParticipantID != "" {
			ptid = &id.ParticipantID
		}
		if id.SpecimenID != "" {
			specimen = &id.SpecimenID
		}

		copyRows = append(copyRows, []any{
			runID, d.LSID, i, ptid, id.VisitID, id.Date, specimen, fields,
		})
	}

	// Large tables are copied in configured batches to bound memory on
	// the server side.
	for _, c := range copyChunks(len(copyRows), t.batchSize) {
		_, err := t.tx.CopyFrom(ctx,
			pgx.Identifier{"result_rows"},
			[]string{
				"run_id", "data_lsid", "ordinal", "participant_id",
				"visit_id", "date", "specimen_id", "fields",
			},
			pgx.CopyFromRows(copyRows[c[0]:c[1]]),
		)
		if err != nil {
			return PersistError("copy result rows", err)
		}
	}
	return nil
}

// copyChunks splits n rows into [start, end) spans of at most
// batchSize rows each.
func copyChunks(n, batchSize int) [][2]int {
	if batchSize <= 0 {
		batchSize = defaultCopyBatch
	}
	var res [][2]int
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		res = append(res, [2]int{start, end})
	}
	return res
}

// typedValue maps a property value onto the typed columns of the
// property table.
func typedValue(v any) (*string, *float64, *time.Time) {
	switch val := v.(type) {
	case float64:
		return nil, &val, nil
	case int:
		f := float64(val)
		return nil, &f, nil
	case time.Time:
		return nil, nil, &val
	default:
		s := tabular.AsString(v)
		return &s, nil, nil
	}
}

// rowFields encodes one row's cells as a JSON object keyed by column
// name.
func rowFields(t *tabular.Table, row int) (string, error) {
	obj := make(map[string]any, len(t.Columns))
	for _, c := range t.Columns {
		v := t.Cell(row, c.Name)
		if v == nil {
			continue
		}
		switch c.Kind {
		case tabular.Numeric:
			if f, ok := tabular.AsFloat(v); ok {
				obj[c.Name] = f
				continue
			}
		case tabular.Date:
			if d, ok := tabular.AsDate(v); ok {
				obj[c.Name] = d.Format(tabular.DateFormat)
				continue
			}
		}
		obj[c.Name] = tabular.AsString(v)
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
