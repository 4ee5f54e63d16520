package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dusk-indust/quorum/internal/manifest"
	"github.com/dusk-indust/quorum/internal/provider"
)

// RoundResult is everything a round produced. Fields are filled as phases
// complete; Phase records the terminal state reached.
type RoundResult struct {
	RoundID string `json:"roundId"`
	Mode    Mode   `json:"-"`
	Phase   Phase  `json:"-"`

	// Ranked is the full ranking, best first. Populated once scoring is done.
	Ranked []RankedProposal `json:"ranked,omitempty"`

	// Winner is the selected proposal. Nil in show-all mode and for rounds
	// that failed before selection.
	Winner *RankedProposal `json:"winner,omitempty"`

	// Failures are the specialist calls that produced no proposal.
	Failures []SpecialistFailure `json:"failures,omitempty"`

	// Edits is the validated edit list extracted from the winner.
	Edits []manifest.Edit `json:"edits,omitempty"`

	// Diff is the unified manifest diff: applied in apply mode, would-be in
	// dry-run mode.
	Diff string `json:"diff,omitempty"`

	// Applied is true when the manifest was persisted.
	Applied bool `json:"applied"`

	// Sync records the external sync signal outcome.
	Sync SyncOutcome `json:"sync"`
}

// Orchestrator drives one round through its phases. It owns round-level
// cancellation and failure policy; retries of transient provider errors
// belong to the SpecialistPool and Judge, not here.
type Orchestrator struct {
	cfg       Config
	pool      *SpecialistPool
	judge     *Judge
	extractor Extractor
	mutator   *manifest.Mutator
	sync      SyncRunner
	progress  *ProgressReporter
	roster    map[string]SpecialistDescriptor
}

// NewOrchestrator wires an Orchestrator from the immutable config, a
// specialist backend, and a scoring backend.
func NewOrchestrator(cfg Config, client provider.Client, backend ScoreBackend) (*Orchestrator, error) {
	cfg = cfg.withDefaults()
	if err := ValidateRoster(cfg.Roster); err != nil {
		return nil, err
	}

	progress := NewProgressReporter()

	o := &Orchestrator{
		cfg: cfg,
		pool: NewSpecialistPool(client,
			WithCallTimeout(cfg.SpecialistTimeout),
			WithPoolProgress(progress.Emit)),
		judge: NewJudge(backend,
			WithJudgeTimeout(cfg.JudgeTimeout),
			WithJudgeRetries(cfg.JudgeRetries),
			WithJudgeProgress(progress.Emit)),
		mutator:  manifest.NewMutator(),
		progress: progress,
		roster:   make(map[string]SpecialistDescriptor, len(cfg.Roster)),
	}
	for _, d := range cfg.Roster {
		o.roster[d.ID] = d
	}
	if len(cfg.SyncCommand) > 0 {
		o.sync = &ExecSyncRunner{Command: cfg.SyncCommand}
	}
	return o, nil
}

// Progress returns a channel that emits progress events for the round.
func (o *Orchestrator) Progress() <-chan ProgressEvent {
	return o.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this once the
// orchestrator is no longer needed.
func (o *Orchestrator) Close() {
	o.progress.Close()
}

// Run executes one round. Cancellation is honored cleanly, with no manifest
// mutation, at every phase boundary up to Applying; from Applying on the
// write completes or fails as a unit regardless of ctx.
func (o *Orchestrator) Run(ctx context.Context, task *Task) (*RoundResult, error) {
	res := &RoundResult{
		RoundID: uuid.NewString(),
		Mode:    o.cfg.Mode,
	}

	fail := func(phase Phase, err error) (*RoundResult, error) {
		res.Phase = PhaseFailed
		o.emitPhase(phase, ProgressFailed, err.Error())
		return res, &RoundError{Phase: phase, Err: err}
	}

	// Collecting: fan out to all configured specialists.
	o.emitPhase(PhaseCollecting, ProgressWorking, "")
	poolRes, err := o.pool.Collect(ctx, task, o.cfg.Roster)
	if err != nil {
		return fail(PhaseCollecting, err)
	}
	res.Failures = poolRes.Failures
	o.emitPhase(PhaseCollecting, ProgressComplete, "")

	// Scoring: independent judge calls for the surviving proposals.
	o.emitPhase(PhaseScoring, ProgressWorking, "")
	ranked, err := o.judge.ScoreAll(ctx, task, poolRes.Proposals)
	if err != nil {
		return fail(PhaseScoring, err)
	}
	res.Ranked = ranked
	o.emitPhase(PhaseScoring, ProgressComplete, "")

	// Selecting: deterministic; ranking already encodes the tie-break chain.
	if err := ctx.Err(); err != nil {
		return fail(PhaseSelecting, err)
	}
	o.emitPhase(PhaseSelecting, ProgressWorking, "")
	if o.cfg.Mode == ModeShowAll {
		// Show-all ends the round here: the caller gets the full ranking and
		// nothing is extracted or applied.
		res.Phase = PhaseDone
		res.Sync.Skipped = true
		o.emitPhase(PhaseSelecting, ProgressComplete, "")
		return res, nil
	}
	winner := ranked[0]
	res.Winner = &winner
	o.emitPhase(PhaseSelecting, ProgressComplete, winner.Proposal.SpecialistID)

	// Extracting: schema-validate the winner's actions into edits.
	if err := ctx.Err(); err != nil {
		return fail(PhaseExtracting, err)
	}
	o.emitPhase(PhaseExtracting, ProgressWorking, "")
	desc, ok := o.roster[winner.Proposal.SpecialistID]
	if !ok {
		return fail(PhaseExtracting, fmt.Errorf("engine: winner %q not in roster", winner.Proposal.SpecialistID))
	}
	edits, err := o.extractor.Extract(desc, task.Manifest, winner.Proposal)
	if err != nil {
		return fail(PhaseExtracting, err)
	}
	res.Edits = edits
	o.emitPhase(PhaseExtracting, ProgressComplete, "")

	// Last cancellation point: once Applying begins the transaction runs to
	// completion or fails atomically, detached from the caller's ctx.
	if err := ctx.Err(); err != nil {
		return fail(PhaseExtracting, err)
	}
	applyCtx := context.WithoutCancel(ctx)

	o.emitPhase(PhaseApplying, ProgressWorking, "")
	if o.cfg.Mode == ModeDryRun {
		staged, err := o.mutator.DryRun(applyCtx, task.Manifest, edits)
		if err != nil {
			return fail(PhaseApplying, err)
		}
		res.Diff = staged.Diff
		res.Sync.Skipped = true
		res.Phase = PhaseDone
		o.emitPhase(PhaseApplying, ProgressComplete, "dry run")
		return res, nil
	}

	applied, err := o.mutator.Apply(applyCtx, task.Manifest, edits)
	if err != nil {
		return fail(PhaseApplying, err)
	}
	res.Diff = applied.Diff
	res.Applied = true
	o.emitPhase(PhaseApplying, ProgressComplete, "")

	// SyncSignaled: observe the external sync's exit status. Failure here is
	// reported, never rolled back, and does not reopen the round.
	if o.cfg.SkipSync || o.sync == nil {
		res.Sync.Skipped = true
		res.Phase = PhaseDone
		return res, nil
	}
	o.emitPhase(PhaseSyncSignaled, ProgressWorking, "")
	res.Sync.Attempted = true
	if err := o.sync.Sync(applyCtx, task.Manifest.Path()); err != nil {
		res.Sync.Err = err
		o.emitPhase(PhaseSyncSignaled, ProgressFailed, err.Error())
	} else {
		o.emitPhase(PhaseSyncSignaled, ProgressComplete, "")
	}

	res.Phase = PhaseDone
	return res, nil
}

func (o *Orchestrator) emitPhase(phase Phase, status ProgressStatus, msg string) {
	o.progress.Emit(ProgressEvent{
		Phase:   phase,
		Actor:   phase.String(),
		Status:  status,
		Message: msg,
	})
}
