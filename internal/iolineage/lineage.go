// Package iolineage persists derivation steps linking original
// materials to their derived samples.
package iolineage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assaykit/assaydb/pkg/assay"
)

type pgxLineage struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL-backed assay.LineageCreator.
func New(pool *pgxpool.Pool) assay.LineageCreator {
	return &pgxLineage{pool: pool}
}

// DeriveSamples writes one derivation step and its edges in a single
// transaction.
func (l *pgxLineage) DeriveSamples(
	ctx context.Context,
	originals map[*assay.Material]string,
	deriveds map[*assay.Material]string,
	info *assay.DeriveInfo,
) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return DeriveError(info.Name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var derivationID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO derivations (name, created_at)
		 VALUES ($1, $2) RETURNING id`,
		info.Name, time.Now(),
	).Scan(&derivationID)
	if err != nil {
		return DeriveError(info.Name, err)
	}

	for m, role := range originals {
		if err = insertEdge(ctx, tx,
			derivationID, m.LSID, "material", role, false); err != nil {
			return DeriveError(info.Name, err)
		}
	}
	for m, role := range deriveds {
		if err = insertEdge(ctx, tx,
			derivationID, m.LSID, "material", role, true); err != nil {
			return DeriveError(info.Name, err)
		}
	}
	for _, d := range info.DataInputs {
		if err = insertEdge(ctx, tx,
			derivationID, d.LSID, "data", "", false); err != nil {
			return DeriveError(info.Name, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return DeriveError(info.Name, err)
	}
	return nil
}

func insertEdge(
	ctx context.Context,
	tx pgx.Tx,
	derivationID int64,
	entityLSID, kind, role string,
	output bool,
) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO derivation_edges
		   (derivation_id, entity_lsid, kind, role, output)
		 VALUES ($1, $2, $3, $4, $5)`,
		derivationID, entityLSID, kind, role, output)
	return err
}
