package ioresolve_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/assaydb/internal/ioresolve"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// fakeSelector serves canned tables per query name and counts queries.
type fakeSelector struct {
	tables  map[string]*tabular.Table
	queries int
}

func (f *fakeSelector) SelectRows(
	_ context.Context,
	_, query string,
	_ map[string]any,
) (*tabular.Table, error) {
	f.queries++
	if t, ok := f.tables[query]; ok {
		return t, nil
	}
	return tabular.New(), nil
}

func specimenTable(rows ...tabular.Row) *tabular.Table {
	t := tabular.New(
		tabular.Column{Name: "GlobalUniqueId"},
		tabular.Column{Name: "ParticipantId"},
		tabular.Column{Name: "SequenceNum", Kind: tabular.Numeric},
		tabular.Column{Name: "DrawTimestamp", Kind: tabular.Date},
	)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func TestSpecimenLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("fills subject from the study record", func(t *testing.T) {
		selector := &fakeSelector{tables: map[string]*tabular.Table{
			"SpecimenDetail": specimenTable(
				tabular.Row{"SP-1", "P-42", "3", "2024-03-01"},
			),
		}}
		strategy := ioresolve.NewSpecimenLookup(selector)

		id, err := strategy.Resolve(ctx,
			assay.ResolveRequest{SpecimenID: "SP-1"}, "/study")
		require.NoError(t, err)

		assert.Equal(t, "P-42", id.ParticipantID)
		require.NotNil(t, id.VisitID)
		assert.InDelta(t, 3.0, *id.VisitID, 1e-9)
		require.NotNil(t, id.Date)
		assert.Equal(t, "2024-03-01", id.Date.Format(tabular.DateFormat))
	})

	t.Run("unknown specimen keeps the supplied tokens", func(t *testing.T) {
		selector := &fakeSelector{}
		strategy := ioresolve.NewSpecimenLookup(selector)

		id, err := strategy.Resolve(ctx, assay.ResolveRequest{
			SpecimenID:    "SP-404",
			ParticipantID: "P-9",
		}, "/study")
		require.NoError(t, err)

		assert.Equal(t, "SP-404", id.SpecimenID)
		assert.Equal(t, "P-9", id.ParticipantID)
	})

	t.Run("ambiguous match is fatal", func(t *testing.T) {
		selector := &fakeSelector{tables: map[string]*tabular.Table{
			"SpecimenDetail": specimenTable(
				tabular.Row{"SP-1", "P-1", "", ""},
				tabular.Row{"SP-1", "P-2", "", ""},
			),
		}}
		strategy := ioresolve.NewSpecimenLookup(selector)

		_, err := strategy.Resolve(ctx,
			assay.ResolveRequest{SpecimenID: "SP-1"}, "/study")
		require.Error(t, err)
	})

	t.Run("no target study skips the lookup", func(t *testing.T) {
		selector := &fakeSelector{}
		strategy := ioresolve.NewSpecimenLookup(selector)

		id, err := strategy.Resolve(ctx,
			assay.ResolveRequest{SpecimenID: "SP-1"}, "")
		require.NoError(t, err)

		assert.Equal(t, "SP-1", id.SpecimenID)
		assert.Zero(t, selector.queries)
	})
}

func TestSampleLookupMissIsCachedByResolver(t *testing.T) {
	ctx := context.Background()
	selector := &fakeSelector{}
	strategy := ioresolve.NewSampleLookup(selector, "Samples")
	r := ioresolve.New("/c", "/study", strategy)

	// Two rows with the same non-existent sample: one query only, the
	// miss is cached as a blank mapping.
	for range 2 {
		id, err := r.Resolve(ctx, assay.ResolveRequest{SpecimenID: "S-404"})
		require.NoError(t, err)
		assert.Equal(t, "S-404", id.SpecimenID)
	}
	assert.Equal(t, 1, selector.queries)
}

func TestSampleLookupHit(t *testing.T) {
	ctx := context.Background()
	samples := tabular.New(
		tabular.Column{Name: "Name"},
		tabular.Column{Name: "ParticipantId"},
		tabular.Column{Name: "SequenceNum", Kind: tabular.Numeric},
		tabular.Column{Name: "Date", Kind: tabular.Date},
	)
	samples.Append(tabular.Row{"S-1", "P-5", "1", "2024-02-10"})

	selector := &fakeSelector{tables: map[string]*tabular.Table{
		"Samples": samples,
	}}
	strategy := ioresolve.NewSampleLookup(selector, "Samples")

	id, err := strategy.Resolve(ctx,
		assay.ResolveRequest{SpecimenID: "S-1"}, "/study")
	require.NoError(t, err)

	assert.Equal(t, "P-5", id.ParticipantID)
	require.NotNil(t, id.VisitID)
	assert.InDelta(t, 1.0, *id.VisitID, 1e-9)
}
