package ioresolve

import (
	"context"

	"github.com/assaykit/assaydb/pkg/assay"
)

// Dataset column names for rows published from a sample set into a
// study.
const (
	colSampleName  = "Name"
	colDatasetPtid = "ParticipantId"
	colDatasetSeq  = "SequenceNum"
	colDatasetDate = "Date"
)

// sampleStrategy treats the raw "specimen" token as a sample-set entity
// reference and queries dataset rows published from that sample set in
// the target study, extracting subject and timepoint columns.
//
// Misses come back as blank identities; the enclosing resolver caches
// them so the same non-existent mapping is never re-queried within a
// run.
type sampleStrategy struct {
	selector assay.RowSelector
	// dataset is the study dataset the sample set publishes into.
	dataset string
}

// NewSampleLookup creates the sample-based strategy reading from the
// given published dataset.
func NewSampleLookup(selector assay.RowSelector, dataset string) Strategy {
	return &sampleStrategy{selector: selector, dataset: dataset}
}

func (s *sampleStrategy) Resolve(
	ctx context.Context,
	req assay.ResolveRequest,
	targetStudy string,
) (assay.SubjectIdentity, error) {
	id := assay.SubjectIdentity{
		ParticipantID: req.ParticipantID,
		VisitID:       req.VisitID,
		Date:          req.Date,
		SpecimenID:    req.SpecimenID,
	}

	if targetStudy == "" || req.SpecimenID == "" || s.selector == nil {
		return id, nil
	}

	rows, err := s.selector.SelectRows(
		ctx, targetStudy, s.dataset,
		map[string]any{colSampleName: req.SpecimenID},
	)
	if err != nil {
		return assay.SubjectIdentity{},
			LookupError(targetStudy, s.dataset, err)
	}

	switch len(rows.Rows) {
	case 0:
		// Miss; cached by the caller as a miss.
		return id, nil
	case 1:
	default:
		return assay.SubjectIdentity{}, AmbiguousSampleError(
			req.SpecimenID, s.dataset, targetStudy, len(rows.Rows))
	}

	if p := rows.CellString(0, colDatasetPtid); p != "" {
		id.ParticipantID = p
	}
	if v, ok := rows.CellFloat(0, colDatasetSeq); ok {
		id.VisitID = &v
	}
	if d, ok := rows.CellDate(0, colDatasetDate); ok {
		id.Date = &d
	}

	return id, nil
}
