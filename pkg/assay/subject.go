package assay

import (
	"strconv"
	"strings"
	"time"

	"github.com/assaykit/assaydb/pkg/tabular"
)

// SubjectIdentity is the resolved subject tuple for one result row or
// well group: participant, visit/date, specimen and optional cohort and
// resolved material. Missing fields stay blank/nil; an identity with
// every field blank is still a valid resolution outcome.
type SubjectIdentity struct {
	ParticipantID string
	VisitID       *float64
	Date          *time.Time
	SpecimenID    string
	CohortID      string

	// Material is the resolved specimen material, when the strategy
	// produced one.
	Material *Material
}

// ResolveRequest is the raw token tuple handed to a resolver strategy.
type ResolveRequest struct {
	SpecimenID    string
	ParticipantID string
	VisitID       *float64
	Date          *time.Time

	// TargetStudyOverride is the per-row target study; it wins over the
	// resolver's configured default.
	TargetStudyOverride string
}

// Normalize trims tokens and collapses empty strings to the blank
// value, so "blank" and "empty string" never produce distinct cache
// keys or identities.
func (r ResolveRequest) Normalize() ResolveRequest {
	r.SpecimenID = strings.TrimSpace(r.SpecimenID)
	r.ParticipantID = strings.TrimSpace(r.ParticipantID)
	r.TargetStudyOverride = strings.TrimSpace(r.TargetStudyOverride)
	return r
}

// CacheKey is the value-equal identity of one resolution: the
// normalized request tuple plus the run container and effective target
// study. Two resolutions with equal keys must yield the same
// SubjectIdentity within one pipeline invocation.
type CacheKey struct {
	SpecimenID    string
	ParticipantID string
	Visit         string
	Date          string
	RunContainer  string
	TargetStudy   string
}

// Key builds the cache key for a request. targetStudy is the effective
// target study after override precedence has been applied.
func (r ResolveRequest) Key(runContainer, targetStudy string) CacheKey {
	n := r.Normalize()
	k := CacheKey{
		SpecimenID:    n.SpecimenID,
		ParticipantID: n.ParticipantID,
		RunContainer:  runContainer,
		TargetStudy:   targetStudy,
	}
	if n.VisitID != nil {
		k.Visit = strconv.FormatFloat(*n.VisitID, 'f', -1, 64)
	}
	if n.Date != nil {
		k.Date = n.Date.Format(tabular.DateFormat)
	}
	return k
}

// TargetStudy applies the precedence rule: the per-row override wins
// over the configured default; blank means no target study and the
// caller must cope (e.g. skip specimen matching).
func (r ResolveRequest) TargetStudy(configured string) string {
	if s := strings.TrimSpace(r.TargetStudyOverride); s != "" {
		return s
	}
	return strings.TrimSpace(configured)
}
