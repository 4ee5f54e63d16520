// Package report renders round results for the CLI: a human-readable
// ranking and summary, and a stable JSON export for scripting.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dusk-indust/quorum/internal/engine"
	"github.com/dusk-indust/quorum/internal/manifest"
)

// RoundExport is the top-level JSON export structure.
type RoundExport struct {
	RoundID    string           `json:"roundId"`
	Mode       string           `json:"mode"`
	Phase      string           `json:"phase"`
	ExportedAt string           `json:"exportedAt"`
	Ranked     []ProposalExport `json:"ranked,omitempty"`
	Winner     *ProposalExport  `json:"winner,omitempty"`
	Failures   []FailureExport  `json:"failures,omitempty"`
	Edits      []manifest.Edit  `json:"edits,omitempty"`
	Diff       string           `json:"diff,omitempty"`
	Applied    bool             `json:"applied"`
	Sync       SyncExport       `json:"sync"`
}

// ProposalExport describes one ranked proposal.
type ProposalExport struct {
	Rank         int                     `json:"rank"`
	SpecialistID string                  `json:"specialistId"`
	Total        int                     `json:"total"`
	Score        engine.RubricScore      `json:"score"`
	Rationale    string                  `json:"rationale,omitempty"`
	Actions      []engine.ProposedAction `json:"actions,omitempty"`
	Confidence   float64                 `json:"confidence"`
	NeedsReview  bool                    `json:"needsReview,omitempty"`
}

// FailureExport describes one specialist call that produced no proposal.
type FailureExport struct {
	SpecialistID string `json:"specialistId"`
	Reason       string `json:"reason"`
}

// SyncExport describes the environment-sync outcome.
type SyncExport struct {
	Attempted bool   `json:"attempted"`
	Skipped   bool   `json:"skipped"`
	Error     string `json:"error,omitempty"`
}

// ExportRound builds a RoundExport from a finished round.
func ExportRound(res *engine.RoundResult) *RoundExport {
	export := &RoundExport{
		RoundID:    res.RoundID,
		Mode:       res.Mode.String(),
		Phase:      res.Phase.String(),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Edits:      res.Edits,
		Diff:       res.Diff,
		Applied:    res.Applied,
		Sync: SyncExport{
			Attempted: res.Sync.Attempted,
			Skipped:   res.Sync.Skipped,
		},
	}
	if res.Sync.Err != nil {
		export.Sync.Error = res.Sync.Err.Error()
	}
	for _, rp := range res.Ranked {
		export.Ranked = append(export.Ranked, exportProposal(rp))
	}
	if res.Winner != nil {
		w := exportProposal(*res.Winner)
		export.Winner = &w
	}
	for _, f := range res.Failures {
		export.Failures = append(export.Failures, FailureExport{
			SpecialistID: f.SpecialistID,
			Reason:       f.Reason,
		})
	}
	return export
}

func exportProposal(rp engine.RankedProposal) ProposalExport {
	return ProposalExport{
		Rank:         rp.Rank,
		SpecialistID: rp.Proposal.SpecialistID,
		Total:        rp.Score.Total,
		Score:        rp.Score,
		Rationale:    rp.Proposal.Rationale,
		Actions:      rp.Proposal.Actions,
		Confidence:   rp.Proposal.Confidence,
		NeedsReview:  rp.Score.NeedsReview,
	}
}

// WriteJSON writes the round export as indented JSON.
func WriteJSON(w io.Writer, res *engine.RoundResult) error {
	data, err := json.MarshalIndent(ExportRound(res), "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal round: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteRanking renders the full ranked proposal list with per-dimension
// rubric scores. Used by show-all mode.
func WriteRanking(w io.Writer, ranked []engine.RankedProposal) {
	for _, rp := range ranked {
		flag := ""
		if rp.Score.NeedsReview {
			flag = "  [needs review]"
		}
		fmt.Fprintf(w, "%d. %s  %d/%d%s\n", rp.Rank, rp.Proposal.SpecialistID, rp.Score.Total, engine.MaxTotal, flag)
		fmt.Fprintf(w, "   correctness %d/%d  completeness %d/%d  safety %d/%d  best-practices %d/%d  clarity %d/%d\n",
			rp.Score.Correctness, engine.MaxCorrectness,
			rp.Score.Completeness, engine.MaxCompleteness,
			rp.Score.Safety, engine.MaxSafety,
			rp.Score.BestPractices, engine.MaxBestPractices,
			rp.Score.Clarity, engine.MaxClarity)
		if r := strings.TrimSpace(rp.Proposal.Rationale); r != "" {
			fmt.Fprintf(w, "   %s\n", firstLine(r))
		}
		for _, a := range rp.Proposal.Actions {
			fmt.Fprintf(w, "   - %s %s", a.Op, a.DependencyString())
			if a.Group != "" {
				fmt.Fprintf(w, " (group %s)", a.Group)
			}
			fmt.Fprintln(w)
		}
	}
}

// WriteSummary renders the terminal state of a completed round.
func WriteSummary(w io.Writer, res *engine.RoundResult) {
	if res.Winner != nil {
		fmt.Fprintf(w, "Selected %s (%d/%d)\n", res.Winner.Proposal.SpecialistID, res.Winner.Score.Total, engine.MaxTotal)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "Specialist %s produced no proposal: %s\n", f.SpecialistID, f.Reason)
	}
	if res.Diff != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, res.Diff)
		if !strings.HasSuffix(res.Diff, "\n") {
			fmt.Fprintln(w)
		}
	}
	switch {
	case res.Applied:
		fmt.Fprintln(w, "Manifest updated.")
	case res.Mode == engine.ModeDryRun:
		fmt.Fprintln(w, "Dry run: no changes written.")
	}
	switch {
	case res.Sync.Err != nil:
		fmt.Fprintf(w, "Warning: environment sync failed: %v\n", res.Sync.Err)
	case res.Sync.Attempted:
		fmt.Fprintln(w, "Environment synced.")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
