package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "assaydb"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/assaydb by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/assaydb by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/assaydb/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName, "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/assaydb/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// DesignsFilePath returns the full path to the designs.yaml file.
// Returns ~/.config/assaydb/designs.yaml by default.
func DesignsFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "designs.yaml")
}
