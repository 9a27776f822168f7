package importer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
)

// Importer orchestrates content import from a Source to an output directory.
type Importer struct {
	source Source
	logger *zap.Logger
}

// New constructs an Importer backed by the given Source.
//
// Precondition: source and logger must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(source Source, logger *zap.Logger) *Importer {
	if source == nil || logger == nil {
		panic("importer.New: precondition violated: source and logger must be non-nil")
	}
	return &Importer{source: source, logger: logger}
}

// Run loads resources from sourceDir, validates each, and writes them as
// YAML files to outputDir, one resource per file named by FileName.
//
// Precondition: sourceDir must satisfy the source's layout requirements;
// outputDir must exist or be creatable.
// Postcondition: returns the number of files written, or an error. Two
// resources mapping to the same file name are an error.
func (imp *Importer) Run(sourceDir, outputDir string) (int, error) {
	overall := time.Now()

	t0 := time.Now()
	resources, err := imp.source.Load(sourceDir)
	if err != nil {
		return 0, fmt.Errorf("loading source: %w", err)
	}
	imp.logger.Info("loaded source",
		zap.String("dir", sourceDir),
		zap.Int("resources", len(resources)),
		zap.Duration("elapsed", time.Since(t0)),
	)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("creating output directory %s: %w", outputDir, err)
	}

	written := make(map[string]ruleset.Resource, len(resources))
	for _, res := range resources {
		ref := ruleset.RefOf(res)
		name := FileName(ref)
		if prev, dup := written[name]; dup {
			return len(written), fmt.Errorf("%s and %s both map to %s", ruleset.RefOf(prev), ref, name)
		}

		var buf bytes.Buffer
		if err := ruleset.Encode(&buf, res); err != nil {
			return len(written), fmt.Errorf("serialising %s: %w", ref, err)
		}

		// Validate output is loadable before writing.
		if _, err := ruleset.Decode(buf.Bytes()); err != nil {
			return len(written), fmt.Errorf("%s failed validation: %w", ref, err)
		}

		outPath := filepath.Join(outputDir, name)
		if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
			return len(written), fmt.Errorf("writing %s to %s: %w", ref, outPath, err)
		}
		written[name] = res
		imp.logger.Debug("wrote resource", zap.Stringer("ref", ref), zap.String("path", outPath))
	}

	imp.logger.Info("import complete",
		zap.Int("files", len(written)),
		zap.Duration("elapsed", time.Since(overall)),
	)
	return len(written), nil
}
