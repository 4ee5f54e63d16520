package manifest

import "fmt"

// EditKind enumerates the supported mutation operations.
type EditKind string

const (
	EditAdd    EditKind = "add"
	EditUpdate EditKind = "update"
	EditRemove EditKind = "remove"
)

// Valid reports whether k is a known edit kind.
func (k EditKind) Valid() bool {
	switch k {
	case EditAdd, EditUpdate, EditRemove:
		return true
	default:
		return false
	}
}

// Edit is one atomic mutation of a single writable manifest path.
//
// For EditAdd and EditUpdate, Value is the full dependency string to insert or
// substitute ("requests" or "requests>=2.28.0"). For EditRemove, Value names
// the package to delete; any version specifier on it is ignored.
type Edit struct {
	Kind  EditKind `json:"kind"`
	Path  string   `json:"path"`
	Value string   `json:"value"`
}

func (e Edit) String() string {
	return fmt.Sprintf("%s %s @ %s", e.Kind, e.Value, e.Path)
}

// ConflictError reports two edits in one transaction targeting the same
// manifest path. Neither edit is applied; both are included so the caller can
// resolve the conflict.
type ConflictError struct {
	Path   string
	First  Edit
	Second Edit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("manifest: conflicting edits for path %q: [%s] vs [%s]", e.Path, e.First, e.Second)
}
