package assay_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/assaykit/assaydb/pkg/assay"
)

func TestNormalize(t *testing.T) {
	req := assay.ResolveRequest{
		SpecimenID:          "  SP-1 ",
		ParticipantID:       "\tP-1\n",
		TargetStudyOverride: " /studies/x ",
	}
	n := req.Normalize()

	assert.Equal(t, "SP-1", n.SpecimenID)
	assert.Equal(t, "P-1", n.ParticipantID)
	assert.Equal(t, "/studies/x", n.TargetStudyOverride)
}

func TestCacheKeyEquality(t *testing.T) {
	visit := 2.0
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		msg   string
		a, b  assay.ResolveRequest
		equal bool
	}{
		{
			msg:   "identical tuples",
			a:     assay.ResolveRequest{SpecimenID: "SP-1", VisitID: &visit},
			b:     assay.ResolveRequest{SpecimenID: "SP-1", VisitID: &visit},
			equal: true,
		},
		{
			msg:   "whitespace only difference",
			a:     assay.ResolveRequest{SpecimenID: "SP-1"},
			b:     assay.ResolveRequest{SpecimenID: " SP-1 "},
			equal: true,
		},
		{
			msg:   "blank and empty string collapse",
			a:     assay.ResolveRequest{ParticipantID: ""},
			b:     assay.ResolveRequest{ParticipantID: "   "},
			equal: true,
		},
		{
			msg:   "different specimen",
			a:     assay.ResolveRequest{SpecimenID: "SP-1"},
			b:     assay.ResolveRequest{SpecimenID: "SP-2"},
			equal: false,
		},
		{
			msg:   "visit vs no visit",
			a:     assay.ResolveRequest{SpecimenID: "SP-1", VisitID: &visit},
			b:     assay.ResolveRequest{SpecimenID: "SP-1"},
			equal: false,
		},
		{
			msg: "same date different pointer",
			a: assay.ResolveRequest{
				SpecimenID: "SP-1",
				Date:       &date,
			},
			b: assay.ResolveRequest{
				SpecimenID: "SP-1",
				Date:       timePtr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
			},
			equal: true,
		},
	}

	for _, v := range tests {
		ka := v.a.Key("/container", "/study")
		kb := v.b.Key("/container", "/study")
		assert.Equal(t, v.equal, ka == kb, v.msg)
	}
}

func TestCacheKeyScope(t *testing.T) {
	req := assay.ResolveRequest{SpecimenID: "SP-1"}

	assert.NotEqual(t,
		req.Key("/a", "/study"), req.Key("/b", "/study"),
		"different containers must not share cache entries")
	assert.NotEqual(t,
		req.Key("/a", "/study1"), req.Key("/a", "/study2"),
		"different target studies must not share cache entries")
}

func TestTargetStudyPrecedence(t *testing.T) {
	tests := []struct {
		msg        string
		override   string
		configured string
		res        string
	}{
		{msg: "override wins", override: "/row", configured: "/cfg", res: "/row"},
		{msg: "configured fallback", override: "", configured: "/cfg", res: "/cfg"},
		{msg: "blank override ignored", override: "  ", configured: "/cfg", res: "/cfg"},
		{msg: "both blank", override: "", configured: "", res: ""},
	}

	for _, v := range tests {
		req := assay.ResolveRequest{TargetStudyOverride: v.override}
		assert.Equal(t, v.res, req.TargetStudy(v.configured), v.msg)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
