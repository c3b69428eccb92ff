// Package ioschema implements the SchemaManager interface for database
// schema management. This is an impure I/O package that wraps GORM
// AutoMigrate functionality.
package ioschema

import (
	"context"

	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/assaykit/assaydb/pkg/config"
	"github.com/assaykit/assaydb/pkg/db"
	"github.com/assaykit/assaydb/pkg/schema"
)

// manager implements the db.SchemaManager interface using GORM
// AutoMigrate.
type manager struct {
	operator db.Operator
}

// NewManager creates a new SchemaManager.
func NewManager(op db.Operator) db.SchemaManager {
	return &manager{operator: op}
}

// Create creates the initial database schema using GORM AutoMigrate.
func (m *manager) Create(
	ctx context.Context,
	cfg *config.Config,
) error {
	gormDB, err := m.gorm()
	if err != nil {
		return err
	}
	if err := schema.Migrate(gormDB); err != nil {
		return CreateSchemaError(err)
	}
	return nil
}

// Migrate updates the database schema to the latest version using GORM
// AutoMigrate.
func (m *manager) Migrate(
	ctx context.Context,
	cfg *config.Config,
) error {
	gormDB, err := m.gorm()
	if err != nil {
		return err
	}
	if err := schema.Migrate(gormDB); err != nil {
		return MigrateSchemaError(err)
	}
	return nil
}

func (m *manager) gorm() (*gorm.DB, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return nil, NotConnectedError()
	}

	conn := stdlib.OpenDBFromPool(pool)

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: conn}),
		&gorm.Config{},
	)
	if err != nil {
		return nil, GORMConnectionError(err)
	}
	return gormDB, nil
}
