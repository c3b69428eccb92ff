// Package ioproperty implements the opaque key-value property store
// over PostgreSQL.
package ioproperty

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

type pgxProperties struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL-backed assay.PropertyStore.
func New(pool *pgxpool.Pool) assay.PropertyStore {
	return &pgxProperties{pool: pool}
}

// EnsureObject verifies the store can hold properties for the entity.
// The property table needs no object pre-registration, so this only
// validates the identifier.
func (p *pgxProperties) EnsureObject(
	_ context.Context,
	entityLSID string,
) error {
	if entityLSID == "" {
		return EmptyLSIDError()
	}
	return nil
}

func (p *pgxProperties) InsertProperties(
	ctx context.Context,
	entityLSID string,
	props assay.PropertyMap,
) error {
	if err := p.EnsureObject(ctx, entityLSID); err != nil {
		return err
	}
	for name, value := range props {
		sv, fv, dv := typedValue(value)
		_, err := p.pool.Exec(ctx,
			`INSERT INTO properties
			   (entity_lsid, name, string_value, float_value, date_value)
			 VALUES ($1, $2, $3, $4, $5)`,
			entityLSID, name, sv, fv, dv)
		if err != nil {
			return InsertError(entityLSID, name, err)
		}
	}
	return nil
}

// GetProperties returns every stored property of the entity. A missing
// entity yields an empty, non-nil map.
func (p *pgxProperties) GetProperties(
	ctx context.Context,
	entityLSID string,
) (assay.PropertyMap, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT name, string_value, float_value, date_value
		   FROM properties
		  WHERE entity_lsid = $1`,
		entityLSID)
	if err != nil {
		return nil, ReadError(entityLSID, err)
	}
	defer rows.Close()

	props := assay.PropertyMap{}
	for rows.Next() {
		var (
			name string
			sv   sql.NullString
			fv   sql.NullFloat64
			dv   sql.NullTime
		)
		if err := rows.Scan(&name, &sv, &fv, &dv); err != nil {
			return nil, ReadError(entityLSID, err)
		}
		switch {
		case fv.Valid:
			props[name] = fv.Float64
		case dv.Valid:
			props[name] = dv.Time
		default:
			props[name] = sv.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ReadError(entityLSID, err)
	}
	return props, nil
}

// typedValue splits a property value into the store's three typed
// columns.
func typedValue(v any) (sql.NullString, sql.NullFloat64, sql.NullTime) {
	switch x := v.(type) {
	case time.Time:
		return sql.NullString{}, sql.NullFloat64{},
			sql.NullTime{Time: x, Valid: true}
	case float64:
		return sql.NullString{}, sql.NullFloat64{Float64: x, Valid: true},
			sql.NullTime{}
	case int:
		return sql.NullString{},
			sql.NullFloat64{Float64: float64(x), Valid: true}, sql.NullTime{}
	default:
		return sql.NullString{String: tabular.AsString(v), Valid: true},
			sql.NullFloat64{}, sql.NullTime{}
	}
}
