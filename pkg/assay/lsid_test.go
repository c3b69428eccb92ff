package assay_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/assaykit/assaydb/pkg/assay"
)

func TestNewLSID(t *testing.T) {
	a := assay.NewLSID(assay.NamespaceRun)
	b := assay.NewLSID(assay.NamespaceRun)

	assert.True(t, strings.HasPrefix(a, "urn:lsid:assaydb:Run:"))
	assert.NotEqual(t, a, b, "generated identifiers must be unique")
}

func TestNameLSID(t *testing.T) {
	a := assay.NameLSID(assay.NamespaceMaterial, "SP-1-A1")
	b := assay.NameLSID(assay.NamespaceMaterial, "SP-1-A1")

	assert.Equal(t, "urn:lsid:assaydb:Material:SP-1-A1", a)
	assert.Equal(t, a, b, "name-based identifiers are deterministic")
}

func TestValidLSIDObject(t *testing.T) {
	tests := []struct {
		msg  string
		name string
		ok   bool
	}{
		{msg: "plain name", name: "SP-1-A1", ok: true},
		{msg: "dots and underscores", name: "s1.prep_2", ok: true},
		{msg: "empty", name: "", ok: false},
		{msg: "leading dash", name: "-SP1", ok: false},
		{msg: "space", name: "SP 1", ok: false},
		{msg: "slash", name: "SP/1", ok: false},
	}

	for _, v := range tests {
		assert.Equal(t, v.ok, assay.ValidLSIDObject(v.name), v.msg)
	}
}
