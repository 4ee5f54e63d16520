// Package manifest provides an edit-preserving view of the project manifest
// (project.yaml). The document is held as a yaml.v3 node tree so that key
// ordering, comments, and all content outside the edited paths survive a
// load/apply/save round trip. Only the dependency list and grouped
// optional-dependency lists are writable; everything else is read-only.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is the manifest filename quorum looks for in a project root.
const DefaultFilename = "project.yaml"

// Writable path roots within the manifest.
const (
	PathDependencies  = "dependencies"
	optionalPrefix    = "optional-dependencies."
	PathOptionalTable = "optional-dependencies"
)

// Document is a parsed manifest. The original bytes are retained so that
// diffs are computed against exactly what was on disk.
type Document struct {
	path string
	raw  []byte
	root *yaml.Node // DocumentNode
}

// Load reads and parses the manifest at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses manifest bytes. The path is recorded for later persistence and
// diff labeling; it may be empty for in-memory documents.
func Parse(data []byte, path string) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}

	if root.Kind == 0 {
		// Empty file: synthesize an empty mapping document so edits have
		// somewhere to land.
		root = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest: %s: top-level document must be a mapping", path)
	}

	return &Document{path: path, raw: data, root: &root}, nil
}

// Path returns the on-disk location of the manifest, empty for in-memory
// documents.
func (d *Document) Path() string { return d.path }

// Bytes returns the manifest exactly as it was loaded.
func (d *Document) Bytes() []byte { return d.raw }

// AllowedPath reports whether p is one of the writable manifest paths:
// "dependencies" or "optional-dependencies.<group>".
func AllowedPath(p string) bool {
	if p == PathDependencies {
		return true
	}
	group, ok := strings.CutPrefix(p, optionalPrefix)
	return ok && group != "" && !strings.Contains(group, ".")
}

// Entries returns the dependency strings currently listed at a writable path.
// A missing list yields an empty slice, not an error.
func (d *Document) Entries(path string) ([]string, error) {
	if !AllowedPath(path) {
		return nil, fmt.Errorf("manifest: path %q is not a writable dependency list", path)
	}
	seq := d.sequenceAt(path)
	if seq == nil {
		return nil, nil
	}
	entries := make([]string, 0, len(seq.Content))
	for _, n := range seq.Content {
		entries = append(entries, n.Value)
	}
	return entries, nil
}

// FindPackage reports whether a package is already listed at path, returning
// the full existing entry (including any version specifier) when it is.
// Matching is case-insensitive on the package name only.
func (d *Document) FindPackage(path, pkg string) (string, bool) {
	entries, err := d.Entries(path)
	if err != nil {
		return "", false
	}
	want := strings.ToLower(pkg)
	for _, entry := range entries {
		if strings.ToLower(PackageName(entry)) == want {
			return entry, true
		}
	}
	return "", false
}

// PackageName extracts the bare package name from a dependency string like
// "requests>=2.28.0" or "uvicorn[standard]==0.23".
func PackageName(entry string) string {
	name := entry
	for _, sep := range []string{"[", ">=", "==", "~=", "!=", ">", "<", ";", " "} {
		if i := strings.Index(name, sep); i >= 0 {
			name = name[:i]
		}
	}
	return strings.TrimSpace(name)
}

// OptionalGroups returns the names of the grouped optional-dependency lists
// in document order.
func (d *Document) OptionalGroups() []string {
	table := mappingValue(d.root.Content[0], PathOptionalTable)
	if table == nil || table.Kind != yaml.MappingNode {
		return nil
	}
	groups := make([]string, 0, len(table.Content)/2)
	for i := 0; i+1 < len(table.Content); i += 2 {
		groups = append(groups, table.Content[i].Value)
	}
	return groups
}

// sequenceAt returns the sequence node at a writable path, or nil when the
// list does not exist yet.
func (d *Document) sequenceAt(path string) *yaml.Node {
	return sequenceIn(d.root.Content[0], path)
}

// sequenceIn resolves a writable path against a top-level mapping node.
func sequenceIn(top *yaml.Node, path string) *yaml.Node {
	if path == PathDependencies {
		n := mappingValue(top, PathDependencies)
		if n != nil && n.Kind == yaml.SequenceNode {
			return n
		}
		return nil
	}
	group := strings.TrimPrefix(path, optionalPrefix)
	table := mappingValue(top, PathOptionalTable)
	if table == nil || table.Kind != yaml.MappingNode {
		return nil
	}
	n := mappingValue(table, group)
	if n != nil && n.Kind == yaml.SequenceNode {
		return n
	}
	return nil
}

// mappingValue returns the value node for key within a mapping node, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// cloneNode deep-copies a yaml node tree. Comments, styles, and ordering are
// carried over so an edited clone re-encodes like the original.
func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = cloneNode(c)
		}
	}
	return &out
}

// encode renders a document node back to YAML with two-space indentation,
// matching the formatting convention of the manifests quorum manages.
func encode(root *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	return buf.Bytes(), nil
}
