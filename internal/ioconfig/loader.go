// Package ioconfig provides I/O operations for loading configuration
// from files, environment variables and flags. This is an impure
// package that handles file system and flag operations.
package ioconfig

import (
	"os"
	"strings"

	"github.com/assaykit/assaydb/pkg/config"
	"github.com/spf13/viper"
)

// LoadResult contains the loaded configuration and metadata about the
// source.
type LoadResult struct {
	Config     *config.Config
	SourcePath string // Path to config file used, or empty if using defaults
	Source     string // "file", "defaults", or "defaults+env"
}

// Load reads configuration from a YAML file and returns a validated
// Config with source info. If configPath is empty, the default location
// (~/.config/assaydb/config.yaml) is tried.
//
// Precedence: flags > env vars > config file > defaults.
func Load(configPath, homeDir string) (*LoadResult, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Enable environment variable overrides
	v.SetEnvPrefix("ASSAYDB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults BEFORE reading config - this allows env vars to work
	// with AutomaticEnv() even when the config file omits a key.
	defaults := config.New()
	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.user", defaults.Database.User)
	v.SetDefault("database.password", defaults.Database.Password)
	v.SetDefault("database.database", defaults.Database.Database)
	v.SetDefault("database.ssl_mode", defaults.Database.SSLMode)
	v.SetDefault("database.batch_size", defaults.Database.BatchSize)
	v.SetDefault("transform.engines", defaults.Transform.Engines)
	v.SetDefault("transform.base_server_url", defaults.Transform.BaseServerURL)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.destination", defaults.Log.Destination)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultPath := config.ConfigFilePath(homeDir)
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			v.SetConfigFile(defaultPath)
		}
	}

	configFileRead := false
	usedConfigPath := ""

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if configPath != "" {
				// Explicit path that doesn't exist is an error
				return nil, LoadError(configPath, err)
			}
			// No config file in default location - use defaults + env
		} else if configPath != "" || v.ConfigFileUsed() != "" {
			return nil, LoadError(v.ConfigFileUsed(), err)
		}
	} else {
		configFileRead = true
		usedConfigPath = v.ConfigFileUsed()
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, LoadError(usedConfigPath, err)
	}
	cfg.HomeDir = homeDir

	source := "defaults"
	if configFileRead {
		source = "file"
	} else if hasEnvVars() {
		source = "defaults+env"
	}

	return &LoadResult{
		Config:     &cfg,
		SourcePath: usedConfigPath,
		Source:     source,
	}, nil
}

// hasEnvVars checks if any ASSAYDB_* environment variables are set.
func hasEnvVars() bool {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "ASSAYDB_") {
			return true
		}
	}
	return false
}
