// Package iofs manages the application's file system layout: config,
// cache and log directories plus the default config and designs files.
package iofs

import (
	_ "embed"
	"os"

	"github.com/assaykit/assaydb/pkg/config"
)

//go:embed config.yaml
var ConfigYAML string

//go:embed designs.yaml
var DesignsYAML string

func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

func EnsureConfigFile(homeDir string) error {
	configPath := config.ConfigFilePath(homeDir)

	// Check if config file already exists
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	// Write embedded config.yaml to the config directory
	if err := os.WriteFile(configPath, []byte(ConfigYAML), 0644); err != nil {
		return WriteFileError(configPath, err)
	}

	return nil
}

func EnsureDesignsFile(homeDir string) error {
	designsPath := config.DesignsFilePath(homeDir)

	// Check if designs file already exists
	if _, err := os.Stat(designsPath); err == nil {
		return nil
	}

	// Write embedded designs.yaml to the config directory
	if err := os.WriteFile(designsPath, []byte(DesignsYAML), 0644); err != nil {
		return WriteFileError(designsPath, err)
	}

	return nil
}
