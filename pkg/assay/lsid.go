package assay

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// LSID namespaces for the entity kinds this pipeline creates.
const (
	NamespaceRun      = "Run"
	NamespaceBatch    = "Batch"
	NamespaceMaterial = "Material"
	NamespaceData     = "Data"
)

// NewLSID generates a stable unique identifier for a new entity:
// urn:lsid:assaydb:<namespace>:<uuid>.
func NewLSID(namespace string) string {
	return fmt.Sprintf("urn:lsid:assaydb:%s:%s", namespace, uuid.NewString())
}

// NameLSID builds a deterministic identifier from a namespace and an
// object name, used for derived samples whose names must be
// collision-probed rather than randomized.
func NameLSID(namespace, name string) string {
	return fmt.Sprintf("urn:lsid:assaydb:%s:%s", namespace, name)
}

var lsidObjectRx = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._%+-]*$`)

// ValidLSIDObject reports whether a generated object name is legal LSID
// syntax after substitution. Derived-sample name generation must reject
// names that fail this check.
func ValidLSIDObject(name string) bool {
	return lsidObjectRx.MatchString(name)
}
