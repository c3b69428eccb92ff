package ioingest

import (
	"context"
	"sync"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// MemoryStore is an in-memory RunStore. It backs dry runs and tests;
// transactions stage their writes and publish them only on commit, so
// rollback semantics match the PostgreSQL store.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64

	Batches    []*assay.Batch
	Runs       []*assay.Run
	Materials  []*assay.Material
	Data       []*assay.Data
	Edges      []MemoryEdge
	Properties map[string]assay.PropertyMap
	ResultRows map[string][]MemoryResultRow
}

// MemoryEdge mirrors one run input/output linkage.
type MemoryEdge struct {
	RunID      int64
	EntityLSID string
	Kind       string
	Output     bool
	Ordinal    int
}

// MemoryResultRow mirrors one persisted result row.
type MemoryResultRow struct {
	RunID    int64
	Ordinal  int
	Identity assay.SubjectIdentity
	Fields   map[string]any
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		Properties: make(map[string]assay.PropertyMap),
		ResultRows: make(map[string][]MemoryResultRow),
	}
}

func (s *MemoryStore) WithTx(
	ctx context.Context,
	fn func(tx RunTx) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, props: make(map[string]assay.PropertyMap)}
	if err := fn(tx); err != nil {
		// Staged writes are discarded; assigned IDs are not reused.
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) BatchNameExists(
	_ context.Context,
	designName, name string,
	excludeID int64,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.Batches {
		if b.DesignName == designName && b.Name == name && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) RenameBatch(
	_ context.Context,
	batchID int64,
	name string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.Batches {
		if b.ID == batchID {
			b.Name = name
			return nil
		}
	}
	return PersistError("rename batch", errNoSuchBatch)
}

func (s *MemoryStore) FindBatch(
	_ context.Context,
	designName, name string,
) (*assay.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.Batches {
		if b.DesignName == designName && b.Name == name {
			return b, nil
		}
	}
	return nil, nil
}

// BatchRuns returns the runs linked to a batch. Test helper.
func (s *MemoryStore) BatchRuns(batchID int64) []*assay.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*assay.Run
	for _, r := range s.Runs {
		if r.Batch != nil && r.Batch.ID == batchID {
			res = append(res, r)
		}
	}
	return res
}

// memTx stages writes until commit.
type memTx struct {
	store *MemoryStore

	batches   []*assay.Batch
	runs      []*assay.Run
	materials []*assay.Material
	data      []*assay.Data
	edges     []MemoryEdge
	props     map[string]assay.PropertyMap
	rows      []stagedRows
}

type stagedRows struct {
	lsid string
	rows []MemoryResultRow
}

func (t *memTx) id() int64 {
	id := t.store.nextID
	t.store.nextID++
	return id
}

func (t *memTx) InsertBatch(_ context.Context, b *assay.Batch) error {
	b.ID = t.id()
	t.batches = append(t.batches, b)
	return nil
}

func (t *memTx) InsertRun(_ context.Context, r *assay.Run) error {
	r.ID = t.id()
	t.runs = append(t.runs, r)
	return nil
}

func (t *memTx) InsertMaterial(_ context.Context, m *assay.Material) error {
	m.ID = t.id()
	t.materials = append(t.materials, m)
	return nil
}

func (t *memTx) InsertData(_ context.Context, d *assay.Data) error {
	d.ID = t.id()
	t.data = append(t.data, d)
	return nil
}

func (t *memTx) InsertEdge(
	_ context.Context,
	runID int64,
	entityLSID, kind string,
	output bool,
	ordinal int,
) error {
	t.edges = append(t.edges, MemoryEdge{
		RunID:      runID,
		EntityLSID: entityLSID,
		Kind:       kind,
		Output:     output,
		Ordinal:    ordinal,
	})
	return nil
}

func (t *memTx) InsertProperties(
	_ context.Context,
	entityLSID string,
	props assay.PropertyMap,
) error {
	merged := t.props[entityLSID]
	if merged == nil {
		merged = assay.PropertyMap{}
	}
	for k, v := range props {
		merged[k] = v
	}
	t.props[entityLSID] = merged
	return nil
}

func (t *memTx) InsertResultRows(
	_ context.Context,
	runID int64,
	d *assay.Data,
	rows *tabular.Table,
	identities []assay.SubjectIdentity,
) error {
	if rows == nil {
		return nil
	}
	staged := stagedRows{lsid: d.LSID}
	for i := range rows.Rows {
		var id assay.SubjectIdentity
		if i < len(identities) {
			id = identities[i]
		}
		fields := make(map[string]any, len(rows.Columns))
		for _, c := range rows.Columns {
			if v := rows.Cell(i, c.Name); v != nil {
				fields[c.Name] = v
			}
		}
		staged.rows = append(staged.rows, MemoryResultRow{
			RunID:    runID,
			Ordinal:  i,
			Identity: id,
			Fields:   fields,
		})
	}
	t.rows = append(t.rows, staged)
	return nil
}

func (t *memTx) commit() {
	s := t.store
	s.Batches = append(s.Batches, t.batches...)
	s.Runs = append(s.Runs, t.runs...)
	s.Materials = append(s.Materials, t.materials...)
	s.Data = append(s.Data, t.data...)
	s.Edges = append(s.Edges, t.edges...)
	for lsid, props := range t.props {
		existing := s.Properties[lsid]
		if existing == nil {
			existing = assay.PropertyMap{}
		}
		for k, v := range props {
			existing[k] = v
		}
		s.Properties[lsid] = existing
	}
	for _, staged := range t.rows {
		s.ResultRows[staged.lsid] = append(
			s.ResultRows[staged.lsid], staged.rows...)
	}
}
