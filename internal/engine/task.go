package engine

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/quorum/internal/manifest"
)

// CheckResult is the pass/fail outcome of one external build-tooling check,
// with whatever output the tool captured.
type CheckResult struct {
	Passed bool   `json:"passed"`
	Output string `json:"output,omitempty"`
}

// Diagnostics is the optional context supplied by an external build-analysis
// collaborator. Nil fields mean the check was not run.
type Diagnostics struct {
	Tests        *CheckResult `json:"tests,omitempty"`
	Formatting   *CheckResult `json:"formatting,omitempty"`
	TypeChecking *CheckResult `json:"typeChecking,omitempty"`
}

// Task is one natural-language request plus its context. It is immutable for
// the duration of a round: the manifest snapshot is taken at round start and
// never reloaded.
type Task struct {
	// Request is the free-text user request.
	Request string

	// Diagnostics is optional build-tooling context.
	Diagnostics *Diagnostics

	// Manifest is the snapshot of the current manifest document.
	Manifest *manifest.Document
}

// Prompt renders the task for a specialist call. The rendering is
// deterministic: identical tasks produce identical prompts, which is what
// makes rounds against a deterministic backend repeatable. The first line is
// the "Request:" contract the local backend reads.
func (t *Task) Prompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Request: %s\n", t.Request)

	sb.WriteString("\nCurrent dependencies:\n")
	deps, _ := t.Manifest.Entries(manifest.PathDependencies)
	if len(deps) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, d := range deps {
		fmt.Fprintf(&sb, "  - %s\n", d)
	}

	if groups := t.Manifest.OptionalGroups(); len(groups) > 0 {
		sb.WriteString("\nOptional dependency groups:\n")
		for _, g := range groups {
			entries, _ := t.Manifest.Entries("optional-dependencies." + g)
			fmt.Fprintf(&sb, "  %s: %s\n", g, strings.Join(entries, ", "))
		}
	}

	if t.Diagnostics != nil {
		sb.WriteString("\nDiagnostics:\n")
		writeCheck(&sb, "tests", t.Diagnostics.Tests)
		writeCheck(&sb, "formatting", t.Diagnostics.Formatting)
		writeCheck(&sb, "type-checking", t.Diagnostics.TypeChecking)
	}

	return sb.String()
}

func writeCheck(sb *strings.Builder, name string, c *CheckResult) {
	if c == nil {
		return
	}
	status := "pass"
	if !c.Passed {
		status = "fail"
	}
	fmt.Fprintf(sb, "  %s: %s\n", name, status)
	if c.Output != "" {
		for _, line := range strings.Split(strings.TrimRight(c.Output, "\n"), "\n") {
			fmt.Fprintf(sb, "    %s\n", line)
		}
	}
}
