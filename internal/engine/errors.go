package engine

import (
	"fmt"
	"strings"
)

// SpecialistFailure records one specialist call that did not produce a
// Proposal.
type SpecialistFailure struct {
	SpecialistID string `json:"specialistId"`
	Err          error  `json:"-"`
	Reason       string `json:"reason"`
}

func (f SpecialistFailure) String() string {
	return fmt.Sprintf("%s: %s", f.SpecialistID, f.Reason)
}

// AggregateFailure means every specialist call in the round failed. The round
// aborts before any scoring, extraction, or mutation.
type AggregateFailure struct {
	Failures []SpecialistFailure
}

func (e *AggregateFailure) Error() string {
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.String()
	}
	return fmt.Sprintf("engine: all %d specialist calls failed: %s",
		len(e.Failures), strings.Join(reasons, "; "))
}

// ValidationError means an extracted action targets a path outside the
// allowed schema or cannot be applied to the current manifest. No edits from
// the proposal are applied.
type ValidationError struct {
	SpecialistID string
	Action       ProposedAction
	Reason       string
}

func (e *ValidationError) Error() string {
	if e.Action == (ProposedAction{}) {
		return fmt.Sprintf("engine: proposal from %s rejected: %s", e.SpecialistID, e.Reason)
	}
	return fmt.Sprintf("engine: proposal from %s rejected: action %s %q: %s",
		e.SpecialistID, e.Action.Op, e.Action.Package, e.Reason)
}

// SyncError means the external sync process exited non-zero after a
// successful manifest write. The mutation is not undone.
type SyncError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("engine: sync command %q exited with code %d", e.Command, e.ExitCode)
}

func (e *SyncError) Unwrap() error { return e.Err }

// RoundError attributes a round failure to the phase it happened in. Every
// failing round terminates in exactly one RoundError; nothing is silently
// dropped.
type RoundError struct {
	Phase Phase
	Err   error
}

func (e *RoundError) Error() string {
	return fmt.Sprintf("engine: round failed during %s: %v", e.Phase, e.Err)
}

func (e *RoundError) Unwrap() error { return e.Err }
