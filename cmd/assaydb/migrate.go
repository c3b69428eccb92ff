package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assaykit/assaydb/internal/iodb"
	"github.com/assaykit/assaydb/internal/ioschema"
	"github.com/assaykit/assaydb/pkg/db"
)

func getMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Applies database migrations",
		Long: "Applies all pending database migrations to bring the " +
			"schema to the latest version.",
		RunE: runMigrate,
	}
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := getConfig()

	var op db.Operator = iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return err
	}
	defer op.Close()

	fmt.Printf("Connected to database: %s@%s:%d/%s\n",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Database)

	var sm db.SchemaManager = ioschema.NewManager(op)

	fmt.Println("Applying database migrations...")
	if err := sm.Migrate(ctx, cfg); err != nil {
		return err
	}

	fmt.Println("\n✓ Database migration complete!")
	return nil
}
