// Package config provides configuration management for assaydb.
//
// This package has no I/O dependencies (no file operations, no network
// calls).
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml >
// defaults.
//
// # Environment Variables
//
// Use ASSAYDB_ prefix with underscores for nesting:
//
//	ASSAYDB_DATABASE_HOST=localhost
//	ASSAYDB_DATABASE_PORT=5432
//	ASSAYDB_LOG_LEVEL=info
package config

// Config represents the complete assaydb configuration.
type Config struct {
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Ingest contains settings specific to the ingest command.
	Ingest IngestConfig `mapstructure:"ingest" yaml:"ingest"`

	// Transform contains settings for external transform script
	// execution.
	Transform TransformConfig `mapstructure:"transform" yaml:"transform"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// BatchSize defines the number of result rows to insert per batch
	// during the persist step. Larger batches are faster but use more
	// memory.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// IngestConfig contains settings specific to the ingest command.
type IngestConfig struct {
	// DesignName selects the assay design from designs.yaml to ingest
	// against. Set by the CLI, never by the config file.
	DesignName string `mapstructure:"design_name" yaml:"design_name"`

	// RunName overrides the default run name (the primary uploaded
	// file's name).
	RunName string `mapstructure:"run_name" yaml:"run_name"`

	// TargetStudy is the default target study container for subject
	// resolution. A per-row override in the uploaded data wins over
	// this value.
	TargetStudy string `mapstructure:"target_study" yaml:"target_study"`
}

// TransformConfig contains settings for external transform script
// execution.
type TransformConfig struct {
	// Engines maps script file extensions (without dot) to the command
	// template used to execute scripts with that extension. The
	// placeholder "${scriptFile}" is replaced with the script path.
	// Example: {"r": "Rscript ${scriptFile}", "py": "python3 ${scriptFile}"}
	Engines map[string]string `mapstructure:"engines" yaml:"engines"`

	// BaseServerURL is passed to transform scripts so they can call
	// back into the server API.
	BaseServerURL string `mapstructure:"base_server_url" yaml:"base_server_url"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
func New() *Config {
	res := &Config{
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      5432,
			User:      "postgres",
			Password:  "postgres",
			Database:  "assaydb",
			SSLMode:   "disable",
			BatchSize: 5_000,
		},
		Transform: TransformConfig{
			Engines: map[string]string{
				"r":  "Rscript ${scriptFile}",
				"py": "python3 ${scriptFile}",
				"sh": "sh ${scriptFile}",
			},
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
	}

	return res
}
