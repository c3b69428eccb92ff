package ioresolve

import (
	"context"
	"fmt"
	"time"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// Thaw-list side table column names. Index plus the four subject
// columns are required; TargetStudy is optional and overrides the
// configured target study per row.
const (
	colIndex       = "Index"
	colSpecimenID  = "SpecimenID"
	colPtid        = "ParticipantID"
	colVisitID     = "VisitID"
	colDate        = "Date"
	colTargetStudy = "TargetStudy"
)

// requiredThawListColumns lists every column a side table must carry.
var requiredThawListColumns = []string{
	colIndex, colSpecimenID, colPtid, colVisitID, colDate,
}

// thawListEntry is one side-table row after validation.
type thawListEntry struct {
	specimenID    string
	participantID string
	visitID       *float64
	date          *time.Time
	targetStudy   string
}

// thawListStrategy implements indirection resolution: the raw token is
// an index into a side table; resolution maps index to a subject tuple
// and only then delegates to a child strategy for final resolution.
// The child relationship is explicit composition.
type thawListStrategy struct {
	child   Strategy
	entries map[string]thawListEntry
}

// NewThawList validates the side table and creates the indirection
// strategy delegating to child. Validation failures (missing required
// columns, duplicate index values, unparsable visit/date values) are
// collected and reported together, not one at a time.
func NewThawList(table *tabular.Table, child Strategy) (Strategy, error) {
	var problems []string

	for _, col := range requiredThawListColumns {
		if !table.HasColumn(col) {
			problems = append(problems,
				fmt.Sprintf("required column %q is missing", col))
		}
	}
	// Without the full column set, row validation would only produce
	// noise; report the structural problems alone.
	if len(problems) > 0 {
		return nil, ThawListError(problems)
	}

	entries := make(map[string]thawListEntry, len(table.Rows))
	for i := range table.Rows {
		rowNum := i + 2 // 1-based, counting the header row

		index := table.CellString(i, colIndex)
		if index == "" {
			problems = append(problems,
				fmt.Sprintf("row %d: blank Index value", rowNum))
			continue
		}
		if _, ok := entries[index]; ok {
			problems = append(problems,
				fmt.Sprintf("row %d: duplicate Index value %q", rowNum, index))
			continue
		}

		entry := thawListEntry{
			specimenID:    table.CellString(i, colSpecimenID),
			participantID: table.CellString(i, colPtid),
			targetStudy:   table.CellString(i, colTargetStudy),
		}

		if raw := table.CellString(i, colVisitID); raw != "" {
			v, ok := table.CellFloat(i, colVisitID)
			if !ok {
				problems = append(problems, fmt.Sprintf(
					"row %d: unparsable VisitID value %q", rowNum, raw))
			} else {
				entry.visitID = &v
			}
		}
		if raw := table.CellString(i, colDate); raw != "" {
			d, ok := table.CellDate(i, colDate)
			if !ok {
				problems = append(problems, fmt.Sprintf(
					"row %d: unparsable Date value %q", rowNum, raw))
			} else {
				entry.date = &d
			}
		}

		entries[index] = entry
	}

	if len(problems) > 0 {
		return nil, ThawListError(problems)
	}

	return &thawListStrategy{child: child, entries: entries}, nil
}

func (t *thawListStrategy) Resolve(
	ctx context.Context,
	req assay.ResolveRequest,
	targetStudy string,
) (assay.SubjectIdentity, error) {
	// The specimen token is the side-table index.
	index := req.SpecimenID
	if index == "" {
		// Nothing to dereference; hand the blank tokens to the child.
		return t.child.Resolve(ctx, req, targetStudy)
	}

	entry, ok := t.entries[index]
	if !ok {
		return assay.SubjectIdentity{}, ThawListIndexError(index)
	}

	childReq := assay.ResolveRequest{
		SpecimenID:    entry.specimenID,
		ParticipantID: entry.participantID,
		VisitID:       entry.visitID,
		Date:          entry.date,
	}
	// A row-level target study in the side table wins over the
	// configured one.
	if entry.targetStudy != "" {
		targetStudy = entry.targetStudy
	}

	return t.child.Resolve(ctx, childReq.Normalize(), targetStudy)
}
