package mcptools

import (
	"github.com/dusk-indust/quorum/internal/manifest"
	"github.com/dusk-indust/quorum/internal/report"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// PreviewTaskInput is the input for the preview_task MCP tool.
type PreviewTaskInput struct {
	Request  string `json:"request" jsonschema:"the natural-language dependency request"`
	Manifest string `json:"manifest,omitempty" jsonschema:"path to the project manifest (default: the server's configured manifest)"`
}

// PreviewTaskOutput is the result of the preview_task MCP tool.
type PreviewTaskOutput struct {
	RoundID string          `json:"roundId"`
	Winner  string          `json:"winner"`
	Total   int             `json:"total"`
	Edits   []manifest.Edit `json:"edits,omitempty"`
	Diff    string          `json:"diff,omitempty"`
}

// ApplyTaskInput is the input for the apply_task MCP tool.
type ApplyTaskInput struct {
	Request  string `json:"request" jsonschema:"the natural-language dependency request"`
	Manifest string `json:"manifest,omitempty" jsonschema:"path to the project manifest (default: the server's configured manifest)"`
	SkipSync bool   `json:"skipSync,omitempty" jsonschema:"skip the environment sync signal after a committed write"`
}

// ApplyTaskOutput is the result of the apply_task MCP tool.
type ApplyTaskOutput struct {
	RoundID       string          `json:"roundId"`
	Winner        string          `json:"winner"`
	Total         int             `json:"total"`
	Edits         []manifest.Edit `json:"edits,omitempty"`
	Diff          string          `json:"diff,omitempty"`
	Applied       bool            `json:"applied"`
	SyncAttempted bool            `json:"syncAttempted"`
	SyncError     string          `json:"syncError,omitempty"`
}

// RankProposalsInput is the input for the rank_proposals MCP tool.
type RankProposalsInput struct {
	Request  string `json:"request" jsonschema:"the natural-language dependency request"`
	Manifest string `json:"manifest,omitempty" jsonschema:"path to the project manifest (default: the server's configured manifest)"`
}

// RankProposalsOutput is the result of the rank_proposals MCP tool.
type RankProposalsOutput struct {
	RoundID string                  `json:"roundId"`
	Ranked  []report.ProposalExport `json:"ranked"`
}
