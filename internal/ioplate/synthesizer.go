// Package ioplate synthesizes derived sample materials for plate-based
// assay designs.
//
// For each well group on the design's plate template it resolves a
// subject identity, reuses or creates one original material per
// distinct specimen, and derives exactly one new prepared material per
// well group, linked to its original through the lineage creator.
package ioplate

import (
	"context"
	"fmt"
	"strings"

	"github.com/assaykit/assaydb/internal/ioingest"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

const (
	derivationName = "Sample Preparation"
	roleOriginal   = "Sample"
	roleDerived    = "Prepared Sample"
)

// MaterialLookup locates pre-existing materials so originals are reused
// rather than duplicated, and checks derived-name collisions.
type MaterialLookup interface {
	// FindBySpecimen returns the original material of a specimen within
	// a container, nil when none exists.
	FindBySpecimen(
		ctx context.Context,
		container, specimenID string,
	) (*assay.Material, error)

	// NameExists reports whether a material name is already taken
	// within a container.
	NameExists(ctx context.Context, container, name string) (bool, error)
}

// Synthesizer implements ioingest.PlateAssembler for plate-based
// designs.
type Synthesizer struct {
	lookup  MaterialLookup
	lineage assay.LineageCreator
}

// New creates the derived-sample synthesizer. lookup may be nil, in
// which case every original material is created fresh and derived names
// are only checked within the invocation.
func New(lookup MaterialLookup, lineage assay.LineageCreator) *Synthesizer {
	return &Synthesizer{lookup: lookup, lineage: lineage}
}

// Assemble gathers well-group entries, resolves their subject
// identities and synthesizes materials. All validation problems are
// reported before any material reaches the persist step.
func (s *Synthesizer) Assemble(
	ctx context.Context,
	uc *assay.UploadContext,
	resolver assay.Resolver,
) (*ioingest.PlateAssembly, error) {
	tmpl := uc.Design.PlateTemplate
	if tmpl == nil {
		return nil, TemplateMissingError(uc.Design.Name)
	}

	entries, metaData, err := loadEntries(uc, tmpl)
	if err != nil {
		return nil, err
	}

	asm := &ioingest.PlateAssembly{}
	if metaData != nil {
		asm.InputData = append(asm.InputData, metaData)
	}

	// One original per distinct specimen, shared across well groups.
	originals := make(map[string]*assay.Material)
	taken := make(map[string]bool)
	originalRoles := make(map[*assay.Material]string)
	derivedRoles := make(map[*assay.Material]string)

	for _, wg := range tmpl.WellGroups {
		entry, ok := entries[wg.Name]
		if !ok {
			// Empty well group, nothing to derive.
			continue
		}

		id, err := resolver.Resolve(ctx, entry.req)
		if err != nil {
			return nil, err
		}

		original, err := s.originalFor(ctx, uc, wg.Name, id, originals)
		if err != nil {
			return nil, err
		}
		if _, seen := originalRoles[original]; !seen {
			asm.InputMaterials = append(asm.InputMaterials, original)
			originalRoles[original] = roleOriginal
		}

		name, err := s.derivedName(ctx, uc.Container, original.Name, wg.Name, taken)
		if err != nil {
			return nil, err
		}
		// Derived names are collision-probed, so the identifier can be
		// deterministic instead of randomized.
		derived := &assay.Material{
			LSID:       assay.NameLSID(assay.NamespaceMaterial, name),
			Name:       name,
			SpecimenID: original.SpecimenID,
			Derived:    true,
			SourceLSID: original.LSID,
			Properties: derivedProps(wg.Position, id, entry.props),
		}
		asm.OutputMaterials = append(asm.OutputMaterials, derived)
		derivedRoles[derived] = roleDerived
	}

	if s.lineage != nil && len(derivedRoles) > 0 {
		info := &assay.DeriveInfo{
			Name:       derivationName,
			DataInputs: asm.InputData,
		}
		if err := s.lineage.DeriveSamples(
			ctx, originalRoles, derivedRoles, info); err != nil {
			return nil, err
		}
	}

	return asm, nil
}

// originalFor reuses an original material for the well group's
// specimen: first within this invocation, then from the store, creating
// one only when neither has it.
func (s *Synthesizer) originalFor(
	ctx context.Context,
	uc *assay.UploadContext,
	group string,
	id assay.SubjectIdentity,
	cache map[string]*assay.Material,
) (*assay.Material, error) {
	specimen := strings.TrimSpace(id.SpecimenID)
	if specimen == "" {
		// Without a specimen token the well group stands alone.
		specimen = group
	}

	if m, ok := cache[specimen]; ok {
		return m, nil
	}
	if id.Material != nil {
		// The resolution strategy already produced the material.
		cache[specimen] = id.Material
		return id.Material, nil
	}
	if s.lookup != nil {
		m, err := s.lookup.FindBySpecimen(ctx, uc.Container, specimen)
		if err != nil {
			return nil, err
		}
		if m != nil {
			cache[specimen] = m
			return m, nil
		}
	}

	m := &assay.Material{
		LSID:       assay.NewLSID(assay.NamespaceMaterial),
		Name:       specimen,
		SpecimenID: specimen,
	}
	cache[specimen] = m
	return m, nil
}

// derivedName generates the derived material's identifier from its
// original's name and well group, probing increasing numeric suffixes
// until an unused one is found.
func (s *Synthesizer) derivedName(
	ctx context.Context,
	container, base, group string,
	taken map[string]bool,
) (string, error) {
	stem := base + "-" + group
	if !assay.ValidLSIDObject(stem) {
		return "", IdentifierError(stem)
	}

	candidate := stem
	for i := 2; ; i++ {
		if !taken[candidate] {
			used := false
			if s.lookup != nil {
				var err error
				used, err = s.lookup.NameExists(ctx, container, candidate)
				if err != nil {
					return "", err
				}
			}
			if !used {
				taken[candidate] = true
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", stem, i)
	}
}

// derivedProps carries the resolved subject tokens and metadata extras
// onto the derived material.
func derivedProps(
	position string,
	id assay.SubjectIdentity,
	extra assay.PropertyMap,
) assay.PropertyMap {
	props := extra.Clone()
	props[colPosition] = position
	if id.ParticipantID != "" {
		props[colPtid] = id.ParticipantID
	}
	if id.VisitID != nil {
		props[colVisitID] = *id.VisitID
	}
	if id.Date != nil {
		props[colDate] = id.Date.Format(tabular.DateFormat)
	}
	return props
}
