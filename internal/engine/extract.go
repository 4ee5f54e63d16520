package engine

import (
	"fmt"

	"github.com/dusk-indust/quorum/internal/manifest"
)

// Extractor converts a winning Proposal's action list into schema-validated
// manifest edits. Validation is all-or-nothing per proposal: one bad action
// rejects every edit from that proposal with a ValidationError, and nothing
// is applied.
type Extractor struct{}

// Extract validates each proposed action against the specialist's
// allowed-path schema, the manifest's writable-path allowlist, and the
// current manifest content, and returns the corresponding edit list.
func (Extractor) Extract(desc SpecialistDescriptor, doc *manifest.Document, p Proposal) ([]manifest.Edit, error) {
	if len(p.Actions) == 0 {
		return nil, &ValidationError{
			SpecialistID: p.SpecialistID,
			Reason:       "proposal contains no machine-readable actions",
		}
	}

	edits := make([]manifest.Edit, 0, len(p.Actions))
	for _, a := range p.Actions {
		kind := manifest.EditKind(a.Op)
		if !kind.Valid() {
			return nil, &ValidationError{
				SpecialistID: p.SpecialistID,
				Action:       a,
				Reason:       fmt.Sprintf("unknown operation %q", a.Op),
			}
		}
		if a.Package == "" {
			return nil, &ValidationError{
				SpecialistID: p.SpecialistID,
				Action:       a,
				Reason:       "action names no package",
			}
		}

		path := a.Path()
		if !manifest.AllowedPath(path) {
			return nil, &ValidationError{
				SpecialistID: p.SpecialistID,
				Action:       a,
				Reason:       fmt.Sprintf("path %q is not a writable manifest path", path),
			}
		}
		if !desc.AllowsPath(path) {
			return nil, &ValidationError{
				SpecialistID: p.SpecialistID,
				Action:       a,
				Reason:       fmt.Sprintf("path %q is outside the %s edit schema", path, desc.ID),
			}
		}

		existing, present := doc.FindPackage(path, a.Package)
		switch kind {
		case manifest.EditAdd:
			if present {
				return nil, &ValidationError{
					SpecialistID: p.SpecialistID,
					Action:       a,
					Reason:       fmt.Sprintf("package already listed as %q", existing),
				}
			}
		case manifest.EditUpdate, manifest.EditRemove:
			if !present {
				return nil, &ValidationError{
					SpecialistID: p.SpecialistID,
					Action:       a,
					Reason:       fmt.Sprintf("package not listed at %q", path),
				}
			}
		}

		value := a.DependencyString()
		if kind == manifest.EditRemove {
			value = a.Package
		}
		edits = append(edits, manifest.Edit{Kind: kind, Path: path, Value: value})
	}

	return edits, nil
}
