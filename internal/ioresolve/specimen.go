package ioresolve

import (
	"context"

	"github.com/assaykit/assaydb/pkg/assay"
)

// Specimen table schema/query and column names in the target study.
const (
	querySpecimenDetail = "SpecimenDetail"

	colGlobalUniqueID = "GlobalUniqueId"
	colParticipantID  = "ParticipantId"
	colSequenceNum    = "SequenceNum"
	colDrawDate       = "DrawTimestamp"
)

// specimenStrategy looks the specimen token up against the target
// study's specimen/vial records to recover participant, visit and date.
// Without a study context it falls back to direct resolution.
type specimenStrategy struct {
	selector assay.RowSelector
	direct   Strategy
}

// NewSpecimenLookup creates the specimen-table lookup strategy.
func NewSpecimenLookup(selector assay.RowSelector) Strategy {
	return &specimenStrategy{selector: selector, direct: NewDirect()}
}

func (s *specimenStrategy) Resolve(
	ctx context.Context,
	req assay.ResolveRequest,
	targetStudy string,
) (assay.SubjectIdentity, error) {
	// No study context, no specimen token or no selector (dry runs):
	// nothing to look up.
	if targetStudy == "" || req.SpecimenID == "" || s.selector == nil {
		return s.direct.Resolve(ctx, req, targetStudy)
	}

	rows, err := s.selector.SelectRows(
		ctx, targetStudy, querySpecimenDetail,
		map[string]any{colGlobalUniqueID: req.SpecimenID},
	)
	if err != nil {
		return assay.SubjectIdentity{},
			LookupError(targetStudy, querySpecimenDetail, err)
	}

	switch len(rows.Rows) {
	case 0:
		// Unknown specimen: not an error, the supplied tokens stand.
		return s.direct.Resolve(ctx, req, targetStudy)
	case 1:
	default:
		return assay.SubjectIdentity{}, AmbiguousSpecimenError(
			req.SpecimenID, targetStudy, len(rows.Rows))
	}

	id := assay.SubjectIdentity{SpecimenID: req.SpecimenID}
	id.ParticipantID = rows.CellString(0, colParticipantID)
	if v, ok := rows.CellFloat(0, colSequenceNum); ok {
		id.VisitID = &v
	}
	if d, ok := rows.CellDate(0, colDrawDate); ok {
		id.Date = &d
	}

	// Tokens the study record does not carry fall back to the upload's
	// values.
	if id.ParticipantID == "" {
		id.ParticipantID = req.ParticipantID
	}
	if id.VisitID == nil {
		id.VisitID = req.VisitID
	}
	if id.Date == nil {
		id.Date = req.Date
	}

	return id, nil
}
