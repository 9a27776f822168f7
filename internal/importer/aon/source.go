package aon

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/game/rref"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"
	"github.com/cory-johannsen/pf2e-sheet/internal/importer"
)

var _ importer.Source = (*Source)(nil)

// Source implements importer.Source for a directory of scraped JSON files:
//
//	sourceDir/
//	  *.json   <- each a JSON array of entries
type Source struct {
	logger *zap.Logger
}

// NewSource constructs a Source.
//
// Precondition: logger must be non-nil.
func NewSource(logger *zap.Logger) *Source {
	if logger == nil {
		panic("aon.NewSource: precondition violated: logger must be non-nil")
	}
	return &Source{logger: logger}
}

// Load reads every *.json file in sourceDir in name order. Entries that cannot
// be converted are logged and skipped; a resource seen twice keeps its first
// definition.
//
// Precondition: sourceDir must be a readable directory.
// Postcondition: returns at least one resource or a non-nil error.
func (s *Source) Load(sourceDir string) ([]ruleset.Resource, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			paths = append(paths, filepath.Join(sourceDir, e.Name()))
		}
	}
	sort.Strings(paths)

	seen := make(map[rref.Ref]struct{})
	var out []ruleset.Resource
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		parsed, err := ParseEntries(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, entry := range parsed {
			rs, err := Convert(entry, s.logger)
			if err != nil {
				s.logger.Warn("skipping entry", zap.String("file", path), zap.Error(err))
				continue
			}
			for _, res := range rs {
				ref := ruleset.RefOf(res)
				if _, dup := seen[ref]; dup {
					s.logger.Warn("duplicate entry", zap.String("file", path), zap.Stringer("ref", ref))
					continue
				}
				seen[ref] = struct{}{}
				out = append(out, res)
			}
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no entries found in %s", sourceDir)
	}
	return out, nil
}
