package engine

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/quorum/internal/manifest"
	"github.com/dusk-indust/quorum/internal/skilldata"
)

// SpecialistDescriptor describes one role-tagged proposal generator. Roles
// are data consumed by one generic execution path, not subtypes: adding a
// role to the roster needs no new code.
type SpecialistDescriptor struct {
	// ID is the role tag, unique within a roster (e.g. "config-specialist").
	ID string `yaml:"id"`

	// Instructions is the system-instruction template for the role.
	Instructions string `yaml:"instructions"`

	// AllowedPaths is the edit-path schema for proposals from this role.
	// Entries are literal writable paths or the pattern
	// "optional-dependencies.*" covering every group.
	AllowedPaths []string `yaml:"allowedPaths"`
}

// AllowsPath reports whether the descriptor's schema permits an edit at path.
func (d SpecialistDescriptor) AllowsPath(path string) bool {
	for _, allowed := range d.AllowedPaths {
		if allowed == path {
			return true
		}
		if allowed == manifest.PathOptionalTable+".*" &&
			strings.HasPrefix(path, manifest.PathOptionalTable+".") {
			return true
		}
	}
	return false
}

// defaultAllowedPaths is the schema both built-in roles use: the dependency
// list and any optional group.
var defaultAllowedPaths = []string{
	manifest.PathDependencies,
	manifest.PathOptionalTable + ".*",
}

// DefaultRoster returns the built-in specialist roster with embedded
// instruction templates.
func DefaultRoster() ([]SpecialistDescriptor, error) {
	roster := make([]SpecialistDescriptor, 0, 2)
	for _, role := range []string{"config-specialist", "workflow-specialist"} {
		instructions, err := skilldata.Instructions(role)
		if err != nil {
			return nil, err
		}
		roster = append(roster, SpecialistDescriptor{
			ID:           role,
			Instructions: instructions,
			AllowedPaths: defaultAllowedPaths,
		})
	}
	return roster, nil
}

// ValidateRoster checks that a roster is usable: non-empty, unique ids,
// non-empty instructions, and at least one allowed path per role.
func ValidateRoster(roster []SpecialistDescriptor) error {
	if len(roster) == 0 {
		return fmt.Errorf("engine: roster must contain at least one specialist")
	}
	seen := make(map[string]bool, len(roster))
	for _, d := range roster {
		if d.ID == "" {
			return fmt.Errorf("engine: roster entry with empty id")
		}
		if seen[d.ID] {
			return fmt.Errorf("engine: duplicate specialist id %q", d.ID)
		}
		seen[d.ID] = true
		if strings.TrimSpace(d.Instructions) == "" {
			return fmt.Errorf("engine: specialist %q has no instructions", d.ID)
		}
		if len(d.AllowedPaths) == 0 {
			return fmt.Errorf("engine: specialist %q has no allowed paths", d.ID)
		}
	}
	return nil
}
