package ioresolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/assaydb/internal/ioresolve"
	"github.com/assaykit/assaydb/pkg/assay"
)

// countingStrategy records every invocation and the target study it was
// handed.
type countingStrategy struct {
	calls   int
	studies []string
	err     error
}

func (s *countingStrategy) Resolve(
	_ context.Context,
	req assay.ResolveRequest,
	targetStudy string,
) (assay.SubjectIdentity, error) {
	s.calls++
	s.studies = append(s.studies, targetStudy)
	if s.err != nil {
		err := s.err
		s.err = nil
		return assay.SubjectIdentity{}, err
	}
	return assay.SubjectIdentity{
		ParticipantID: "P-" + req.SpecimenID,
		SpecimenID:    req.SpecimenID,
	}, nil
}

func TestResolverInvokesStrategyOncePerTuple(t *testing.T) {
	ctx := context.Background()
	strategy := &countingStrategy{}
	r := ioresolve.New("/container", "/study", strategy)

	first, err := r.Resolve(ctx, assay.ResolveRequest{SpecimenID: "SP-1"})
	require.NoError(t, err)

	// Same tuple modulo whitespace: must hit the cache.
	second, err := r.Resolve(ctx, assay.ResolveRequest{SpecimenID: " SP-1 "})
	require.NoError(t, err)

	assert.Equal(t, 1, strategy.calls,
		"equal tuples must invoke the strategy at most once")
	assert.Equal(t, first, second)

	_, err = r.Resolve(ctx, assay.ResolveRequest{SpecimenID: "SP-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, strategy.calls)
}

func TestResolverCachesBlankMisses(t *testing.T) {
	ctx := context.Background()
	strategy := &countingStrategy{}
	r := ioresolve.New("/container", "", strategy)

	// A fully blank tuple resolves to a blank identity; the second
	// resolution must still come from the cache.
	_, err := r.Resolve(ctx, assay.ResolveRequest{})
	require.NoError(t, err)
	_, err = r.Resolve(ctx, assay.ResolveRequest{ParticipantID: "  "})
	require.NoError(t, err)

	assert.Equal(t, 1, strategy.calls)
}

func TestResolverDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	strategy := &countingStrategy{err: errors.New("lookup down")}
	r := ioresolve.New("/container", "/study", strategy)

	req := assay.ResolveRequest{SpecimenID: "SP-1"}

	_, err := r.Resolve(ctx, req)
	require.Error(t, err)

	// The failed resolution was not cached; the retry reaches the
	// strategy again and succeeds.
	id, err := r.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "SP-1", id.SpecimenID)
	assert.Equal(t, 2, strategy.calls)
}

func TestResolverTargetStudyPrecedence(t *testing.T) {
	ctx := context.Background()
	strategy := &countingStrategy{}
	r := ioresolve.New("/container", "/configured", strategy)

	_, err := r.Resolve(ctx, assay.ResolveRequest{SpecimenID: "SP-1"})
	require.NoError(t, err)
	_, err = r.Resolve(ctx, assay.ResolveRequest{
		SpecimenID:          "SP-2",
		TargetStudyOverride: "/row",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/configured", "/row"}, strategy.studies)
}

func TestResolverSeparatesStudiesInCache(t *testing.T) {
	ctx := context.Background()
	strategy := &countingStrategy{}
	r := ioresolve.New("/container", "/configured", strategy)

	// Same specimen under two effective studies: two cache entries.
	_, err := r.Resolve(ctx, assay.ResolveRequest{SpecimenID: "SP-1"})
	require.NoError(t, err)
	_, err = r.Resolve(ctx, assay.ResolveRequest{
		SpecimenID:          "SP-1",
		TargetStudyOverride: "/row",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, strategy.calls)
}

func TestDirectStrategy(t *testing.T) {
	ctx := context.Background()
	visit := 3.0
	r := ioresolve.New("/c", "", ioresolve.NewDirect())

	id, err := r.Resolve(ctx, assay.ResolveRequest{
		SpecimenID:    "SP-1",
		ParticipantID: "P-9",
		VisitID:       &visit,
	})
	require.NoError(t, err)

	assert.Equal(t, "SP-1", id.SpecimenID)
	assert.Equal(t, "P-9", id.ParticipantID)
	require.NotNil(t, id.VisitID)
	assert.InDelta(t, 3.0, *id.VisitID, 1e-9)
	assert.Nil(t, id.Date)
}
