package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// ApplyResult is the outcome of a successful (or dry-run) edit transaction.
type ApplyResult struct {
	// Document is the post-edit manifest. For dry runs it is in-memory only.
	Document *Document

	// Diff is the unified diff from the on-disk content to the edited content.
	Diff string

	// Content is the full edited manifest.
	Content []byte

	// DryRun is true when nothing was persisted.
	DryRun bool
}

// Mutator applies validated edit lists to a Document as one atomic
// transaction. It is the single writer for the manifest file: a commit takes
// an advisory lock scoped to the manifest path so that two concurrent quorum
// invocations against the same project cannot interleave writes.
type Mutator struct {
	lockRetry   time.Duration
	lockTimeout time.Duration
}

// MutatorOption configures a Mutator.
type MutatorOption func(*Mutator)

// WithLockTimeout bounds how long a commit waits for the manifest lock.
func WithLockTimeout(d time.Duration) MutatorOption {
	return func(m *Mutator) { m.lockTimeout = d }
}

// NewMutator creates a Mutator with a 10s lock acquisition bound.
func NewMutator(opts ...MutatorOption) *Mutator {
	m := &Mutator{
		lockRetry:   50 * time.Millisecond,
		lockTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Apply applies all edits to doc and persists the result atomically.
// It fails with ConflictError before touching anything if two edits target the
// same path, and with an error if any single edit cannot be applied; in both
// cases the on-disk manifest is untouched.
func (m *Mutator) Apply(ctx context.Context, doc *Document, edits []Edit) (*ApplyResult, error) {
	res, err := m.stage(doc, edits)
	if err != nil {
		return nil, err
	}
	if err := m.commit(ctx, doc, res); err != nil {
		return nil, err
	}
	return res, nil
}

// DryRun computes the result of applying edits without persisting anything.
// The returned diff is identical to what Apply would produce for the same
// document and edit list.
func (m *Mutator) DryRun(_ context.Context, doc *Document, edits []Edit) (*ApplyResult, error) {
	res, err := m.stage(doc, edits)
	if err != nil {
		return nil, err
	}
	res.DryRun = true
	return res, nil
}

// stage validates the edit set and produces the edited document in memory.
func (m *Mutator) stage(doc *Document, edits []Edit) (*ApplyResult, error) {
	if len(edits) == 0 {
		return nil, fmt.Errorf("manifest: empty edit list")
	}

	// Conflict scan first: no last-write-wins.
	byPath := make(map[string]Edit, len(edits))
	for _, e := range edits {
		if prev, ok := byPath[e.Path]; ok {
			return nil, &ConflictError{Path: e.Path, First: prev, Second: e}
		}
		byPath[e.Path] = e
	}

	root := cloneNode(doc.root)
	top := root.Content[0]

	for _, e := range edits {
		if !e.Kind.Valid() {
			return nil, fmt.Errorf("manifest: unknown edit kind %q", e.Kind)
		}
		if !AllowedPath(e.Path) {
			return nil, fmt.Errorf("manifest: path %q is not a writable dependency list", e.Path)
		}
		if err := applyEdit(top, e); err != nil {
			return nil, err
		}
	}

	content, err := encode(root)
	if err != nil {
		return nil, err
	}

	diff, err := unifiedDiff(doc.raw, content, doc.path)
	if err != nil {
		return nil, err
	}

	return &ApplyResult{
		Document: &Document{path: doc.path, raw: content, root: root},
		Diff:     diff,
		Content:  content,
	}, nil
}

// commit writes the staged content to disk under the manifest lock, via a
// temp file and rename so a crash never leaves a half-written manifest.
func (m *Mutator) commit(ctx context.Context, doc *Document, res *ApplyResult) error {
	if doc.path == "" {
		return fmt.Errorf("manifest: cannot commit an in-memory document")
	}

	lockCtx, cancel := context.WithTimeout(ctx, m.lockTimeout)
	defer cancel()

	fl := flock.New(doc.path + ".lock")
	locked, err := fl.TryLockContext(lockCtx, m.lockRetry)
	if err != nil {
		return fmt.Errorf("manifest: acquire lock for %s: %w", doc.path, err)
	}
	if !locked {
		return fmt.Errorf("manifest: %s is locked by another process", doc.path)
	}
	defer fl.Unlock()

	mode := os.FileMode(0o644)
	if info, err := os.Stat(doc.path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(doc.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(doc.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("manifest: create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(res.Content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("manifest: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("manifest: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("manifest: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, doc.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("manifest: replace %s: %w", doc.path, err)
	}
	return nil
}

// applyEdit performs one edit against the cloned top-level mapping.
func applyEdit(top *yaml.Node, e Edit) error {
	switch e.Kind {
	case EditAdd:
		seq := ensureSequence(top, e.Path)
		if _, ok := findEntry(seq, e.Value); ok {
			return fmt.Errorf("manifest: add %q to %s: package already listed", e.Value, e.Path)
		}
		seq.Content = append(seq.Content, scalar(e.Value))
		return nil

	case EditUpdate:
		seq := sequenceIn(top, e.Path)
		if seq == nil {
			return fmt.Errorf("manifest: update %q in %s: list does not exist", e.Value, e.Path)
		}
		i, ok := findEntry(seq, e.Value)
		if !ok {
			return fmt.Errorf("manifest: update %q in %s: package not listed", e.Value, e.Path)
		}
		// Replace the value in place; comments attached to the entry survive.
		seq.Content[i].Value = e.Value
		seq.Content[i].Tag = "!!str"
		return nil

	case EditRemove:
		seq := sequenceIn(top, e.Path)
		if seq == nil {
			return fmt.Errorf("manifest: remove %q from %s: list does not exist", e.Value, e.Path)
		}
		i, ok := findEntry(seq, e.Value)
		if !ok {
			return fmt.Errorf("manifest: remove %q from %s: package not listed", e.Value, e.Path)
		}
		seq.Content = append(seq.Content[:i], seq.Content[i+1:]...)
		return nil

	default:
		return fmt.Errorf("manifest: unknown edit kind %q", e.Kind)
	}
}

// findEntry locates the sequence index whose package name matches the package
// named by value (version specifiers on either side are ignored).
func findEntry(seq *yaml.Node, value string) (int, bool) {
	want := PackageName(value)
	for i, n := range seq.Content {
		if strings.EqualFold(PackageName(n.Value), want) {
			return i, true
		}
	}
	return 0, false
}

// ensureSequence returns the sequence at path, creating the list (and for
// optional groups, the enclosing table) at the end of its parent mapping when
// absent.
func ensureSequence(top *yaml.Node, path string) *yaml.Node {
	if seq := sequenceIn(top, path); seq != nil {
		return seq
	}

	if path == PathDependencies {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		top.Content = append(top.Content, scalar(PathDependencies), seq)
		return seq
	}

	group := path[len(optionalPrefix):]
	table := mappingValue(top, PathOptionalTable)
	if table == nil || table.Kind != yaml.MappingNode {
		table = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		top.Content = append(top.Content, scalar(PathOptionalTable), table)
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	table.Content = append(table.Content, scalar(group), seq)
	return seq
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// unifiedDiff renders a unified diff between the original and edited manifest.
func unifiedDiff(before, after []byte, path string) (string, error) {
	name := filepath.Base(path)
	if name == "." || name == "" {
		name = DefaultFilename
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("manifest: diff: %w", err)
	}
	return diff, nil
}
