// Package ioresolve implements the subject resolution strategies that
// map raw specimen/participant/visit/date tokens to a canonical
// SubjectIdentity.
//
// A resolver wraps one strategy with an invocation-scoped cache. The
// cache is keyed by the normalized value tuple (specimen, participant,
// visit, date, run container, target study) and guarantees that the
// same input tuple always yields the same resolved identity within one
// ingestion run. Downstream code may synthesize a material per distinct
// identity, so cache hits are a correctness requirement, not just an
// optimization.
package ioresolve

import (
	"context"

	"github.com/assaykit/assaydb/pkg/assay"
)

// Strategy is one resolution algorithm. Implementations receive the
// already-normalized request and the effective target study (override
// precedence already applied; blank means none).
type Strategy interface {
	Resolve(
		ctx context.Context,
		req assay.ResolveRequest,
		targetStudy string,
	) (assay.SubjectIdentity, error)
}

// resolver wraps a strategy with the invocation-scoped cache.
type resolver struct {
	runContainer string
	targetStudy  string
	strategy     Strategy
	cache        map[assay.CacheKey]assay.SubjectIdentity
}

// New creates a resolver for one pipeline invocation. The cache it
// owns is discarded with it; resolvers are never shared between
// invocations.
func New(runContainer, targetStudy string, s Strategy) assay.Resolver {
	return &resolver{
		runContainer: runContainer,
		targetStudy:  targetStudy,
		strategy:     s,
		cache:        make(map[assay.CacheKey]assay.SubjectIdentity),
	}
}

// Resolve applies normalization and target-study precedence, consults
// the cache, and invokes the strategy at most once per distinct key.
// Strategy misses (identities with blank fields) are cached like any
// other outcome so e.g. a non-existent sample mapping is not re-queried
// for every row. Strategy errors are fatal to the enclosing run and are
// not cached.
func (r *resolver) Resolve(
	ctx context.Context,
	req assay.ResolveRequest,
) (assay.SubjectIdentity, error) {
	req = req.Normalize()
	study := req.TargetStudy(r.targetStudy)
	key := req.Key(r.runContainer, study)

	if id, ok := r.cache[key]; ok {
		return id, nil
	}

	id, err := r.strategy.Resolve(ctx, req, study)
	if err != nil {
		return assay.SubjectIdentity{}, err
	}

	r.cache[key] = id
	return id, nil
}
