// Package ioquery queries reference lists and study datasets stored in
// PostgreSQL.
package ioquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

type pgxSelector struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL-backed assay.RowSelector. Reference lists
// and datasets are plain tables addressed by schema and table name.
func New(pool *pgxpool.Pool) assay.RowSelector {
	return &pgxSelector{pool: pool}
}

// SelectRows returns the rows of schema.query matching the filter. A
// miss returns an empty table, not an error.
func (s *pgxSelector) SelectRows(
	ctx context.Context,
	schema, query string,
	filter map[string]any,
) (*tabular.Table, error) {
	sql := fmt.Sprintf("SELECT * FROM %s",
		pgx.Identifier{schema, query}.Sanitize())

	var (
		args  []any
		conds []string
	)
	for col, val := range filter {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d",
			pgx.Identifier{col}.Sanitize(), len(args)))
	}
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, SelectError(schema, query, err)
	}
	defer rows.Close()

	cols := make([]tabular.Column, len(rows.FieldDescriptions()))
	for i, fd := range rows.FieldDescriptions() {
		cols[i] = tabular.Column{Name: fd.Name, Kind: tabular.String}
	}
	t := tabular.New(cols...)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, SelectError(schema, query, err)
		}
		row := make(tabular.Row, len(values))
		for i, v := range values {
			row[i] = normalize(v)
		}
		t.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, SelectError(schema, query, err)
	}
	return t, nil
}

// normalize maps driver-specific value types onto the tabular cell
// types.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, float64, time.Time:
		return x
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
