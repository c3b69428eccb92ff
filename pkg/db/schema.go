package db

import (
	"context"

	"github.com/assaykit/assaydb/pkg/config"
)

// SchemaManager manages the database schema lifecycle via GORM
// AutoMigrate.
type SchemaManager interface {
	// Create creates the initial database schema.
	Create(ctx context.Context, cfg *config.Config) error

	// Migrate updates the database schema to the latest version.
	Migrate(ctx context.Context, cfg *config.Config) error
}
