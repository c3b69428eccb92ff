package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assaykit/assaydb/internal/iodb"
	"github.com/assaykit/assaydb/internal/ioschema"
	"github.com/assaykit/assaydb/pkg/db"
)

var (
	forceCreate bool
)

func getCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create database schema",
		Long: `Create the assay results database schema from scratch.

This command:
  1. Connects to PostgreSQL using configuration settings
  2. Checks for existing tables and prompts for confirmation if found
  3. Creates all tables using GORM AutoMigrate

Use --force to skip confirmation and drop existing tables automatically.

Examples:
  assaydb create
  assaydb create --force
  assaydb create --config custom.yaml`,
		RunE: runCreate,
	}

	cmd.Flags().BoolVar(&forceCreate, "force", false,
		"drop existing tables before creating schema (destructive)")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
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

	hasTables, err := op.HasTables(ctx)
	if err != nil {
		return err
	}

	if hasTables {
		if !forceCreate {
			fmt.Println("\nWarning: Database contains existing tables.")
			fmt.Println(
				"Creating schema will drop ALL existing tables and data.")
			fmt.Print("\nDo you want to continue? (yes/no): ")

			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read user input: %w", err)
			}

			response = strings.TrimSpace(strings.ToLower(response))
			if response != "yes" && response != "y" {
				fmt.Println("Aborted. No changes made to the database.")
				return nil
			}
		}

		fmt.Println("Dropping all existing tables...")
		if err := op.DropAllTables(ctx); err != nil {
			return err
		}
		fmt.Println("✓ All tables dropped")
	}

	var sm db.SchemaManager = ioschema.NewManager(op)

	fmt.Println("Creating schema using GORM AutoMigrate...")
	if err := sm.Create(ctx, cfg); err != nil {
		return err
	}

	fmt.Println("\n✓ Database schema creation complete!")
	fmt.Println("\nNext steps:")
	fmt.Println("  - Edit designs.yaml to describe your assay designs")
	fmt.Println("  - Run 'assaydb ingest' to import assay runs")

	return nil
}
