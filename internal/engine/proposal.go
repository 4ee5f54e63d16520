package engine

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/dusk-indust/quorum/internal/manifest"
)

// ProposedAction is one machine-readable action from a specialist's ACTIONS
// block. It is the specialist-facing shape; the extractor turns it into a
// manifest.Edit after validation.
type ProposedAction struct {
	Op      string `json:"op"`
	Package string `json:"package"`
	Version string `json:"version,omitempty"`
	Group   string `json:"group,omitempty"`
}

// Path returns the manifest path this action targets.
func (a ProposedAction) Path() string {
	if a.Group != "" {
		return manifest.PathOptionalTable + "." + a.Group
	}
	return manifest.PathDependencies
}

// DependencyString renders the action's dependency entry, package plus any
// version specifier.
func (a ProposedAction) DependencyString() string {
	return a.Package + a.Version
}

// Proposal is one specialist's candidate recommendation. Proposals are never
// mutated after creation.
type Proposal struct {
	SpecialistID string           `json:"specialistId"`
	Rationale    string           `json:"rationale"`
	Actions      []ProposedAction `json:"actions,omitempty"`
	Confidence   float64          `json:"confidence"`
}

// RankedProposal pairs a Proposal with its rubric score and its final rank.
// Rank is assigned only once all scores in the round are known.
type RankedProposal struct {
	Proposal Proposal    `json:"proposal"`
	Score    RubricScore `json:"score"`
	Rank     int         `json:"rank"`
}

var confidenceRe = regexp.MustCompile(`(?m)^CONFIDENCE:\s*([0-9]*\.?[0-9]+)`)

// ParseProposal reads a completion into a Proposal. Specialists follow the
// rationale / CONFIDENCE / ACTIONS contract; anything that deviates degrades
// gracefully: missing confidence defaults to 0.5, a missing or malformed
// ACTIONS block yields a proposal with no actions (reported as unextractable
// later, never a parse failure here).
func ParseProposal(specialistID, content string) Proposal {
	p := Proposal{
		SpecialistID: specialistID,
		Confidence:   0.5,
	}

	if m := confidenceRe.FindStringSubmatch(content); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.Confidence = min(max(v, 0), 1)
		}
	}

	p.Rationale = rationaleOf(content)
	p.Actions = parseActions(content)
	return p
}

// rationaleOf is the free text before the first contract marker.
func rationaleOf(content string) string {
	cut := len(content)
	for _, marker := range []string{"CONFIDENCE:", "ACTIONS:", "ACTION:"} {
		if i := strings.Index(content, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(content[:cut])
}

// parseActions extracts the JSON action list. Both the list form
// ("ACTIONS:" + JSON array) and the legacy single-object form
// ("ACTION:" + JSON object) are accepted.
func parseActions(content string) []ProposedAction {
	if i := strings.Index(content, "ACTIONS:"); i >= 0 {
		rest := content[i+len("ACTIONS:"):]
		start := strings.Index(rest, "[")
		end := strings.LastIndex(rest, "]")
		if start >= 0 && end > start {
			var actions []ProposedAction
			if err := json.Unmarshal([]byte(rest[start:end+1]), &actions); err == nil {
				return actions
			}
		}
		return nil
	}

	if i := strings.Index(content, "ACTION:"); i >= 0 {
		rest := content[i+len("ACTION:"):]
		start := strings.Index(rest, "{")
		end := strings.LastIndex(rest, "}")
		if start >= 0 && end > start {
			var action ProposedAction
			if err := json.Unmarshal([]byte(rest[start:end+1]), &action); err == nil {
				return []ProposedAction{action}
			}
		}
	}
	return nil
}
