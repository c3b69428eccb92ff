package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/assaykit/assaydb/internal/ioconfig"
	"github.com/assaykit/assaydb/internal/iofs"
	"github.com/assaykit/assaydb/internal/iologger"
	pkgconfig "github.com/assaykit/assaydb/pkg/config"
)

var (
	cfgFile string
	cfg     *pkgconfig.Config
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "assaydb",
		Short: "assaydb manages the assay results database",
		Long: `assaydb is a CLI tool for managing an assay results PostgreSQL
database: schema creation and migration, and ingestion of laboratory
assay runs (tabular or plate-based) with subject resolution and
external transform scripts.

Main commands:
  - create: Create database schema
  - migrate: Apply schema migrations
  - ingest: Ingest one assay run into a batch

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (ASSAYDB_*)
  3. Config file (config.yaml)
  4. Built-in defaults

Environment Variables:
  All configuration can be set via ASSAYDB_* environment variables.
  Nested fields use underscores (database.host → ASSAYDB_DATABASE_HOST).

  Examples:
    ASSAYDB_DATABASE_HOST            PostgreSQL host
    ASSAYDB_DATABASE_PORT            PostgreSQL port
    ASSAYDB_DATABASE_USER            PostgreSQL user
    ASSAYDB_DATABASE_PASSWORD        PostgreSQL password
    ASSAYDB_DATABASE_DATABASE        Database name
    ASSAYDB_DATABASE_BATCH_SIZE      Result row insert batch size
    ASSAYDB_LOG_LEVEL                Log level (debug/info/warn/error)

  See 'go doc github.com/assaykit/assaydb/pkg/config' for the complete
  list.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to find home directory: %w", err)
			}

			// First run creates the config/cache/log layout and seeds the
			// default config and designs files.
			if err := iofs.EnsureDirs(homeDir); err != nil {
				return err
			}
			if err := iofs.EnsureConfigFile(homeDir); err != nil {
				return err
			}
			if err := iofs.EnsureDesignsFile(homeDir); err != nil {
				return err
			}

			result, err := ioconfig.Load(cfgFile, homeDir)
			if err != nil {
				return err
			}
			cfg = result.Config

			if err := iologger.Init(
				pkgconfig.LogDir(homeDir), cfg.Log, false); err != nil {
				return err
			}

			switch result.Source {
			case "file":
				fmt.Printf("Using config from: %s\n", result.SourcePath)
			case "defaults+env":
				fmt.Println(
					"Using built-in defaults with environment variable overrides")
			case "defaults":
				fmt.Println("Using built-in defaults (no config file)")
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.config/assaydb/config.yaml)")

	rootCmd.Flags().BoolP("version", "V", false, "version for assaydb")

	rootCmd.AddCommand(getCreateCmd())
	rootCmd.AddCommand(getMigrateCmd())
	rootCmd.AddCommand(getIngestCmd())

	return rootCmd
}

// getConfig returns the loaded configuration (for use in subcommands)
func getConfig() *pkgconfig.Config {
	return cfg
}
