// Package iomaterial looks up persisted sample materials.
package iomaterial

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assaykit/assaydb/internal/ioplate"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/errcode"
	"github.com/gnames/gn"
)

type pgxLookup struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL-backed material lookup.
func New(pool *pgxpool.Pool) ioplate.MaterialLookup {
	return &pgxLookup{pool: pool}
}

// FindBySpecimen returns the original material holding a specimen
// identifier, nil when none exists. Materials are container-agnostic in
// the store, so the container argument only scopes future extensions.
func (l *pgxLookup) FindBySpecimen(
	ctx context.Context,
	_, specimenID string,
) (*assay.Material, error) {
	var (
		m      assay.Material
		source sql.NullString
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, lsid, name, source_lsid
		   FROM materials
		  WHERE specimen_id = $1 AND NOT derived
		  ORDER BY id
		  LIMIT 1`,
		specimenID,
	).Scan(&m.ID, &m.LSID, &m.Name, &source)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lookupError(specimenID, err)
	}
	m.SpecimenID = specimenID
	m.SourceLSID = source.String
	return &m, nil
}

func (l *pgxLookup) NameExists(
	ctx context.Context,
	_, name string,
) (bool, error) {
	var exists bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM materials WHERE name = $1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, lookupError(name, err)
	}
	return exists, nil
}

func lookupError(key string, err error) error {
	msg := `Could not look up sample material

<em>Key:</em> %s`

	vars := []any{key}

	return &gn.Error{
		Code: errcode.ResolutionLookupError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("material lookup for %q: %w", key, err),
	}
}
