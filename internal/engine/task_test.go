package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/quorum/internal/manifest"
)

const taskManifest = `name: demo
version: 0.1.0
dependencies:
  - requests
  - flask>=2.3
optional-dependencies:
  dev:
    - black
`

func taskDocument(t *testing.T) *manifest.Document {
	t.Helper()
	doc, err := manifest.Parse([]byte(taskManifest), "project.yaml")
	require.NoError(t, err)
	return doc
}

func TestTaskPrompt_RendersRequestAndManifest(t *testing.T) {
	task := &Task{Request: "add pytest to the dev group", Manifest: taskDocument(t)}

	prompt := task.Prompt()
	lines := strings.Split(prompt, "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "Request: add pytest to the dev group", lines[0])
	assert.Contains(t, prompt, "  - requests\n")
	assert.Contains(t, prompt, "  - flask>=2.3\n")
	assert.Contains(t, prompt, "  dev: black\n")
}

func TestTaskPrompt_EmptyDependencyList(t *testing.T) {
	doc, err := manifest.Parse([]byte("name: demo\n"), "")
	require.NoError(t, err)

	prompt := (&Task{Request: "add requests", Manifest: doc}).Prompt()
	assert.Contains(t, prompt, "(none)")
	assert.NotContains(t, prompt, "Optional dependency groups")
}

func TestTaskPrompt_IncludesDiagnostics(t *testing.T) {
	task := &Task{
		Request:  "fix the failing tests",
		Manifest: taskDocument(t),
		Diagnostics: &Diagnostics{
			Tests:      &CheckResult{Passed: false, Output: "2 failed\n1 passed"},
			Formatting: &CheckResult{Passed: true},
		},
	}

	prompt := task.Prompt()
	assert.Contains(t, prompt, "  tests: fail\n")
	assert.Contains(t, prompt, "    2 failed\n")
	assert.Contains(t, prompt, "    1 passed\n")
	assert.Contains(t, prompt, "  formatting: pass\n")
	assert.NotContains(t, prompt, "type-checking")
}

func TestTaskPrompt_Deterministic(t *testing.T) {
	task := &Task{Request: "add pandas", Manifest: taskDocument(t)}
	assert.Equal(t, task.Prompt(), task.Prompt())
}
