// Package iodesigns loads assay design configuration from designs.yaml.
// This is an impure I/O package implementing the designs.Designs
// contract.
package iodesigns

import (
	"os"

	"github.com/assaykit/assaydb/pkg/config"
	"github.com/assaykit/assaydb/pkg/designs"
	"gopkg.in/yaml.v3"
)

type iodesigns struct {
	cfg *config.Config
}

// New creates a designs loader reading from the config directory.
func New(cfg *config.Config) designs.Designs {
	res := iodesigns{cfg: cfg}
	return &res
}

func (d *iodesigns) Load() (*designs.DesignsConfig, error) {
	designsPath := config.DesignsFilePath(d.cfg.HomeDir)
	designsConfig, err := loadDesignsConfig(designsPath)
	if err != nil {
		return nil, DesignsConfigError(designsPath, err)
	}
	return designsConfig, nil
}

func loadDesignsConfig(path string) (*designs.DesignsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg designs.DesignsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
