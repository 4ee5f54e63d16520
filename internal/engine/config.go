package engine

import "time"

// Mode selects what a round does with its winning proposal.
type Mode int

const (
	// ModeApply selects a winner, extracts its edits, and persists them.
	ModeApply Mode = iota

	// ModeDryRun runs through extraction and computes the would-be diff
	// without persisting anything.
	ModeDryRun

	// ModeShowAll returns the full ranked proposal list and applies nothing.
	ModeShowAll
)

func (m Mode) String() string {
	switch m {
	case ModeApply:
		return "apply"
	case ModeDryRun:
		return "dry-run"
	case ModeShowAll:
		return "show-all"
	default:
		return "unknown"
	}
}

// Config holds the immutable per-round settings of an Orchestrator.
type Config struct {
	// Mode is the caller-facing mode for this round.
	Mode Mode

	// Roster is the configured specialist list. It must be non-empty.
	Roster []SpecialistDescriptor

	// SpecialistTimeout bounds each individual specialist call.
	SpecialistTimeout time.Duration

	// JudgeTimeout bounds each individual judge call (per attempt).
	JudgeTimeout time.Duration

	// JudgeRetries is how many times a failed judge call is retried before
	// the proposal falls back to a synthetic minimum score.
	JudgeRetries uint64

	// SkipSync suppresses the external sync signal after a committed write.
	SkipSync bool

	// SyncCommand is the external environment-sync command. Empty disables
	// sync signaling.
	SyncCommand []string
}

// withDefaults fills in zero-valued settings.
func (c Config) withDefaults() Config {
	if c.SpecialistTimeout <= 0 {
		c.SpecialistTimeout = 60 * time.Second
	}
	if c.JudgeTimeout <= 0 {
		c.JudgeTimeout = 30 * time.Second
	}
	if c.JudgeRetries == 0 {
		c.JudgeRetries = 2
	}
	return c
}
