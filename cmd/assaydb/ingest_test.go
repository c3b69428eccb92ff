package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/assaykit/assaydb/pkg/config"
)

func TestApplyIngestDefaults(t *testing.T) {
	ingestDesign = ""
	ingestRunName = "from-flag"
	ingestTargetStudy = ""
	t.Cleanup(func() {
		ingestDesign, ingestRunName, ingestTargetStudy = "", "", ""
	})

	applyIngestDefaults(&config.IngestConfig{
		DesignName:  "ELISA",
		RunName:     "from-config",
		TargetStudy: "/studies/x",
	})

	assert.Equal(t, "ELISA", ingestDesign,
		"empty flag takes the config value")
	assert.Equal(t, "from-flag", ingestRunName,
		"explicit flag wins over the config value")
	assert.Equal(t, "/studies/x", ingestTargetStudy)
}
