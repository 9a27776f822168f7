// Package main imports scraped rules content into resource YAML files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/config"
	"github.com/cory-johannsen/pf2e-sheet/internal/importer"
	"github.com/cory-johannsen/pf2e-sheet/internal/importer/aon"
	"github.com/cory-johannsen/pf2e-sheet/internal/observability"
)

func main() {
	format := flag.String("format", "aon", "source format: aon")
	sourceDir := flag.String("source", "", "path to source directory")
	outputDir := flag.String("output", "", "path to output resource directory")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	if *sourceDir == "" || *outputDir == "" {
		fmt.Fprintln(os.Stderr, "usage: import-content [-format aon] -source <dir> -output <dir>")
		os.Exit(1)
	}

	logger, err := observability.NewLogger(config.LoggingConfig{Level: *logLevel, Format: "console"}, "import-content")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var src importer.Source
	switch *format {
	case "aon":
		src = aon.NewSource(logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q (supported: aon)\n", *format)
		os.Exit(1)
	}

	start := time.Now()
	n, err := importer.New(src, logger).Run(*sourceDir, *outputDir)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	fmt.Printf("imported %d resource(s) in %s\n", n, time.Since(start).Round(time.Millisecond))
}
