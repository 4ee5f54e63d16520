package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `name: demo-api
version: 1.2.0
description: Internal HTTP API for order intake
# Runtime requirements.
dependencies:
  - requests
  - flask>=2.3
optional-dependencies:
  dev:
    - black
  test:
    - coverage
scripts:
  serve: flask run --port 8080
`

func TestAllowedPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"dependencies", true},
		{"optional-dependencies.dev", true},
		{"optional-dependencies.test", true},
		{"optional-dependencies.", false},
		{"optional-dependencies", false},
		{"optional-dependencies.dev.nested", false},
		{"scripts", false},
		{"name", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AllowedPath(tt.path), "path %q", tt.path)
	}
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		entry string
		want  string
	}{
		{"requests", "requests"},
		{"requests>=2.28.0", "requests"},
		{"flask==2.3.1", "flask"},
		{"uvicorn[standard]>=0.23", "uvicorn"},
		{"pandas~=2.0", "pandas"},
		{"numpy<2", "numpy"},
		{"django!=4.0", "django"},
		{"pkg ; python_version>='3.11'", "pkg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PackageName(tt.entry), "entry %q", tt.entry)
	}
}

func TestParse_Entries(t *testing.T) {
	doc, err := Parse([]byte(sampleManifest), "project.yaml")
	require.NoError(t, err)

	deps, err := doc.Entries(PathDependencies)
	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "flask>=2.3"}, deps)

	dev, err := doc.Entries("optional-dependencies.dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"black"}, dev)

	// A missing group is empty, not an error.
	docs, err := doc.Entries("optional-dependencies.docs")
	require.NoError(t, err)
	assert.Empty(t, docs)

	// Non-writable paths are rejected.
	_, err = doc.Entries("scripts")
	require.Error(t, err)
}

func TestParse_EmptyDocument(t *testing.T) {
	doc, err := Parse(nil, "project.yaml")
	require.NoError(t, err)

	deps, err := doc.Entries(PathDependencies)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestParse_NonMappingTopLevel(t *testing.T) {
	_, err := Parse([]byte("- just\n- a\n- list\n"), "project.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top-level document must be a mapping")
}

func TestFindPackage(t *testing.T) {
	doc, err := Parse([]byte(sampleManifest), "project.yaml")
	require.NoError(t, err)

	entry, ok := doc.FindPackage(PathDependencies, "flask")
	require.True(t, ok)
	assert.Equal(t, "flask>=2.3", entry)

	// Case-insensitive on the package name.
	entry, ok = doc.FindPackage(PathDependencies, "Requests")
	require.True(t, ok)
	assert.Equal(t, "requests", entry)

	_, ok = doc.FindPackage(PathDependencies, "pytest")
	assert.False(t, ok)
}
