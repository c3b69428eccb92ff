// Package main provides the assaydb CLI application.
// assaydb manages the assay results database: schema lifecycle and run
// ingestion.
package main

import (
	"os"
)

var (
	// Version is set by build flags
	Version = "dev"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
