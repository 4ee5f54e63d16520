package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dusk-indust/quorum/internal/manifest"
	"github.com/dusk-indust/quorum/internal/provider"
	"github.com/dusk-indust/quorum/internal/skilldata"
)

// ScoreBackend computes a RubricScore for one (Task, Proposal) pair. The
// judge treats it as a capability: the rubric arithmetic lives here in the
// engine, the backend only supplies the judgment. Implementations must not
// observe other proposals or any judge state, so scoring stays non-anchored.
type ScoreBackend interface {
	Score(ctx context.Context, task *Task, proposal Proposal) (RubricScore, error)
}

// HeuristicScorer is a deterministic ScoreBackend: a pure function of the
// task and proposal. It is the default backend when no remote judge is
// configured and the reference backend for the repeatability tests.
type HeuristicScorer struct{}

// Compile-time interface check.
var _ ScoreBackend = HeuristicScorer{}

// Score rates a proposal from its observable structure alone.
func (HeuristicScorer) Score(_ context.Context, _ *Task, p Proposal) (RubricScore, error) {
	var correctness, completeness, safety, bestPractices, clarity int

	hasActions := len(p.Actions) > 0
	wellFormed := hasActions
	anyVersion := false
	allPathsWritable := hasActions
	anyRemove := false
	for _, a := range p.Actions {
		if a.Package == "" || !manifest.EditKind(a.Op).Valid() {
			wellFormed = false
		}
		if a.Version != "" {
			anyVersion = true
		}
		if !manifest.AllowedPath(a.Path()) {
			allPathsWritable = false
		}
		if a.Op == string(manifest.EditRemove) {
			anyRemove = true
		}
	}

	if hasActions {
		correctness += 20
	}
	if wellFormed {
		correctness += 10
	}

	if hasActions {
		completeness += 10
	}
	if anyVersion {
		completeness += 8
	}
	if len(p.Rationale) >= 40 {
		completeness += 7
	}

	if allPathsWritable {
		safety += 12
	}
	if !anyRemove {
		safety += 4
	}
	if anyVersion {
		safety += 4
	}

	if hasActions && len(p.Actions) <= 2 {
		bestPractices += 8 // minimal, focused change
	}
	if strings.Contains(versionsOf(p), ">=") {
		bestPractices += 7 // lower bound instead of an exact pin
	}

	if strings.TrimSpace(p.Rationale) != "" {
		clarity += 5
	}
	if p.Confidence > 0 {
		clarity += 5
	}

	return NewRubricScore(correctness, completeness, safety, bestPractices, clarity)
}

func versionsOf(p Proposal) string {
	var sb strings.Builder
	for _, a := range p.Actions {
		sb.WriteString(a.Version)
	}
	return sb.String()
}

// ClientScorer asks a remote completion backend to judge a proposal against
// the fixed rubric. The backend sees one proposal per call and returns a
// SCORES block that is bounds-checked here before use.
type ClientScorer struct {
	client       provider.Client
	instructions string
}

// Compile-time interface check.
var _ ScoreBackend = (*ClientScorer)(nil)

// NewClientScorer creates a ClientScorer using the embedded judge
// instructions.
func NewClientScorer(client provider.Client) (*ClientScorer, error) {
	instructions, err := skilldata.Instructions("judge")
	if err != nil {
		return nil, err
	}
	return &ClientScorer{client: client, instructions: instructions}, nil
}

// Score sends one proposal for judgment and parses the SCORES block.
func (s *ClientScorer) Score(ctx context.Context, task *Task, p Proposal) (RubricScore, error) {
	resp, err := s.client.Complete(ctx, provider.Request{
		Role:         "judge",
		Instructions: s.instructions,
		Prompt:       judgePrompt(task, p),
	})
	if err != nil {
		return RubricScore{}, err
	}
	return parseScores(resp.Content)
}

// judgePrompt renders the single proposal under judgment. The task's prompt
// is included so the judge sees the same context the specialist saw, but
// never any other proposal.
func judgePrompt(task *Task, p Proposal) string {
	actions, _ := json.Marshal(p.Actions)
	var sb strings.Builder
	sb.WriteString(task.Prompt())
	sb.WriteString("\nProposal under evaluation:\n")
	fmt.Fprintf(&sb, "Rationale: %s\n", p.Rationale)
	fmt.Fprintf(&sb, "Actions: %s\n", actions)
	fmt.Fprintf(&sb, "Self-reported confidence: %.2f\n", p.Confidence)
	return sb.String()
}

// parseScores reads the SCORES JSON block out of a judge completion.
func parseScores(content string) (RubricScore, error) {
	i := strings.Index(content, "SCORES:")
	if i < 0 {
		return RubricScore{}, fmt.Errorf("engine: judge response has no SCORES block")
	}
	rest := content[i+len("SCORES:"):]
	start := strings.Index(rest, "{")
	end := strings.LastIndex(rest, "}")
	if start < 0 || end <= start {
		return RubricScore{}, fmt.Errorf("engine: judge SCORES block is not a JSON object")
	}

	var raw struct {
		Correctness   int `json:"correctness"`
		Completeness  int `json:"completeness"`
		Safety        int `json:"safety"`
		BestPractices int `json:"bestPractices"`
		Clarity       int `json:"clarity"`
	}
	if err := json.Unmarshal([]byte(rest[start:end+1]), &raw); err != nil {
		return RubricScore{}, fmt.Errorf("engine: decode judge scores: %w", err)
	}
	return NewRubricScore(raw.Correctness, raw.Completeness, raw.Safety, raw.BestPractices, raw.Clarity)
}
