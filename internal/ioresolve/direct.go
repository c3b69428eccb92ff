package ioresolve

import (
	"context"

	"github.com/assaykit/assaydb/pkg/assay"
)

// directStrategy resolves tokens supplied directly on the upload form:
// specimen, participant+visit, participant+date, or all of them.
// Resolution is the identity function; missing fields stay blank.
type directStrategy struct{}

// NewDirect creates the direct resolution strategy.
func NewDirect() Strategy {
	return directStrategy{}
}

func (directStrategy) Resolve(
	_ context.Context,
	req assay.ResolveRequest,
	_ string,
) (assay.SubjectIdentity, error) {
	return assay.SubjectIdentity{
		ParticipantID: req.ParticipantID,
		VisitID:       req.VisitID,
		Date:          req.Date,
		SpecimenID:    req.SpecimenID,
	}, nil
}
