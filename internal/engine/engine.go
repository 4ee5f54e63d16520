// Package engine implements the multi-specialist orchestration and judging
// round: concurrent proposal collection, independent rubric scoring,
// deterministic selection, extraction of schema-checked edits, and atomic
// application to the project manifest.
package engine

// Phase identifies a round phase. A round advances strictly forward through
// the non-terminal phases; PhaseFailed is reachable from any of them.
type Phase int

const (
	PhaseCollecting Phase = iota
	PhaseScoring
	PhaseSelecting
	PhaseExtracting
	PhaseApplying
	PhaseSyncSignaled
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	names := [...]string{
		"collecting",
		"scoring",
		"selecting",
		"extracting",
		"applying",
		"sync-signaled",
		"done",
		"failed",
	}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// Terminal reports whether the phase ends a round.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// ProgressEvent is emitted to the user during round execution.
type ProgressEvent struct {
	Phase   Phase
	Actor   string // specialist id, or the phase name for phase-level events
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of an actor within a phase.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)
