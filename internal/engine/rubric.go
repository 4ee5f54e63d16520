package engine

import (
	"fmt"
	"sort"
)

// Fixed point ceilings for the five rubric dimensions.
const (
	MaxCorrectness   = 30
	MaxCompleteness  = 25
	MaxSafety        = 20
	MaxBestPractices = 15
	MaxClarity       = 10
	MaxTotal         = MaxCorrectness + MaxCompleteness + MaxSafety + MaxBestPractices + MaxClarity
)

// RubricScore is a bounded five-dimension quality score for one Proposal.
// Total always equals the sum of the dimensions; construct scores through
// NewRubricScore so the invariant holds.
type RubricScore struct {
	Correctness   int `json:"correctness"`
	Completeness  int `json:"completeness"`
	Safety        int `json:"safety"`
	BestPractices int `json:"bestPractices"`
	Clarity       int `json:"clarity"`
	Total         int `json:"total"`

	// NeedsReview marks a synthetic score assigned because judging failed
	// after retries; the proposal stays in the ranking but must be checked
	// by a human.
	NeedsReview bool `json:"needsReview,omitempty"`
}

// NewRubricScore builds a bounds-checked score. Each dimension must lie in
// [0, ceiling]; the total is computed, never supplied.
func NewRubricScore(correctness, completeness, safety, bestPractices, clarity int) (RubricScore, error) {
	check := func(name string, v, ceiling int) error {
		if v < 0 || v > ceiling {
			return fmt.Errorf("engine: rubric dimension %s = %d out of range [0, %d]", name, v, ceiling)
		}
		return nil
	}
	if err := check("correctness", correctness, MaxCorrectness); err != nil {
		return RubricScore{}, err
	}
	if err := check("completeness", completeness, MaxCompleteness); err != nil {
		return RubricScore{}, err
	}
	if err := check("safety", safety, MaxSafety); err != nil {
		return RubricScore{}, err
	}
	if err := check("best-practices", bestPractices, MaxBestPractices); err != nil {
		return RubricScore{}, err
	}
	if err := check("clarity", clarity, MaxClarity); err != nil {
		return RubricScore{}, err
	}
	return RubricScore{
		Correctness:   correctness,
		Completeness:  completeness,
		Safety:        safety,
		BestPractices: bestPractices,
		Clarity:       clarity,
		Total:         correctness + completeness + safety + bestPractices + clarity,
	}, nil
}

// syntheticReviewScore is the minimum-confidence score assigned when judging
// a proposal failed after all retries.
func syntheticReviewScore() RubricScore {
	return RubricScore{NeedsReview: true}
}

// RankProposals orders scored proposals deterministically and assigns ranks
// starting at 1. Ordering: total descending, then correctness, completeness,
// and safety descending, then specialist id ascending. Iteration order of the
// input never influences the result.
func RankProposals(scored []RankedProposal) []RankedProposal {
	ranked := make([]RankedProposal, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		if a.Score.Correctness != b.Score.Correctness {
			return a.Score.Correctness > b.Score.Correctness
		}
		if a.Score.Completeness != b.Score.Completeness {
			return a.Score.Completeness > b.Score.Completeness
		}
		if a.Score.Safety != b.Score.Safety {
			return a.Score.Safety > b.Score.Safety
		}
		return a.Proposal.SpecialistID < b.Proposal.SpecialistID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
