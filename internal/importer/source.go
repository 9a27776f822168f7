// Package importer turns scraped rules content into resource YAML files the
// ruleset loader accepts.
package importer

import "github.com/cory-johannsen/pf2e-sheet/internal/game/ruleset"

// Source loads content from a format-specific source directory and produces
// resources ready to be written as resource YAML files.
//
// Precondition: sourceDir must exist and contain the expected layout for the format.
// Postcondition: returns at least one resource, or a non-nil error.
type Source interface {
	Load(sourceDir string) ([]ruleset.Resource, error)
}
