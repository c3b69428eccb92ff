package ioresolve

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/assaykit/assaydb/internal/iotabular"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// Factory instantiates the resolver strategy an assay design
// configures. Instantiation may contribute extra input data to the run,
// e.g. an uploaded thaw-list side table becomes a data input so the
// file stays traceable.
type Factory struct {
	selector assay.RowSelector
}

// NewFactory creates a resolver factory using the given row selector
// for study lookups.
func NewFactory(selector assay.RowSelector) *Factory {
	return &Factory{selector: selector}
}

// ForUpload builds the resolver for one upload context. The returned
// data slice holds any input data the strategy attaches to the run
// (nil when the strategy needs none).
func (f *Factory) ForUpload(
	ctx context.Context,
	uc *assay.UploadContext,
) (assay.Resolver, []*assay.Data, error) {
	design := uc.Design
	study := EffectiveTargetStudy(uc)

	var strategy Strategy
	var extra []*assay.Data

	switch design.Resolver {
	case "specimen":
		strategy = NewSpecimenLookup(f.selector)
	case "sample":
		strategy = NewSampleLookup(f.selector, design.SampleDataset)
	case "thaw_list":
		var err error
		strategy, extra, err = f.thawList(ctx, uc)
		if err != nil {
			return nil, nil, err
		}
	default:
		strategy = NewDirect()
	}

	return New(uc.Container, study, strategy), extra, nil
}

func (f *Factory) thawList(
	ctx context.Context,
	uc *assay.UploadContext,
) (Strategy, []*assay.Data, error) {
	tl := uc.Design.ThawList

	var child Strategy
	switch tl.Child {
	case "direct":
		child = NewDirect()
	default:
		child = NewSpecimenLookup(f.selector)
	}

	var table *tabular.Table
	var extra []*assay.Data

	switch tl.Source {
	case "list":
		if f.selector == nil {
			return nil, nil, LookupError(tl.SchemaName, tl.QueryName,
				errors.New("no row selector available"))
		}
		var err error
		table, err = f.selector.SelectRows(
			ctx, tl.SchemaName, tl.QueryName, nil)
		if err != nil {
			return nil, nil, LookupError(tl.SchemaName, tl.QueryName, err)
		}
	default:
		path := tl.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(uc.UploadDir, path)
		}
		var err error
		table, err = iotabular.ReadFile(path, nil)
		if err != nil {
			return nil, nil, err
		}
		// Attach the side table itself as a run input.
		extra = append(extra, &assay.Data{
			LSID: assay.NewLSID(assay.NamespaceData),
			Name: filepath.Base(path),
			File: path,
			Rows: table,
		})
	}

	strategy, err := NewThawList(table, child)
	if err != nil {
		return nil, nil, err
	}
	return strategy, extra, nil
}

// EffectiveTargetStudy determines the resolver's configured default
// target study for an upload: the explicit upload setting first, then
// the submitted batch and run properties, then the design default.
// Blank means resolution proceeds with no target study.
func EffectiveTargetStudy(uc *assay.UploadContext) string {
	if s := strings.TrimSpace(uc.TargetStudy); s != "" {
		return s
	}
	if s := propString(uc.BatchProperties, "TargetStudy"); s != "" {
		return s
	}
	if s := propString(uc.RunProperties, "TargetStudy"); s != "" {
		return s
	}
	return strings.TrimSpace(uc.Design.TargetStudy)
}

func propString(props assay.PropertyMap, name string) string {
	if props == nil {
		return ""
	}
	if v, ok := props[name]; ok {
		return strings.TrimSpace(tabular.AsString(v))
	}
	return ""
}
