package engine

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// Judge scores each surviving Proposal independently against the fixed
// rubric. Judge calls for distinct proposals run concurrently; each call sees
// only its own (Task, Proposal) pair, never another proposal's content or
// score. A failed call is retried with bounded exponential backoff; when
// retries exhaust, the proposal keeps a synthetic minimum score flagged for
// manual review instead of being dropped, so the round always ends with a
// complete ranking.
type Judge struct {
	backend         ScoreBackend
	callTimeout     time.Duration
	maxRetries      uint64
	initialInterval time.Duration
	onProgress      func(ProgressEvent)
}

// JudgeOption configures a Judge.
type JudgeOption func(*Judge)

// WithJudgeTimeout bounds each individual scoring attempt.
func WithJudgeTimeout(d time.Duration) JudgeOption {
	return func(j *Judge) { j.callTimeout = d }
}

// WithJudgeRetries sets the retry ceiling for failed scoring calls.
func WithJudgeRetries(n uint64) JudgeOption {
	return func(j *Judge) { j.maxRetries = n }
}

// WithJudgeBackoff sets the initial backoff interval between retries.
func WithJudgeBackoff(d time.Duration) JudgeOption {
	return func(j *Judge) { j.initialInterval = d }
}

// WithJudgeProgress registers a progress callback. It is called synchronously
// from each judge goroutine; it may be nil.
func WithJudgeProgress(fn func(ProgressEvent)) JudgeOption {
	return func(j *Judge) { j.onProgress = fn }
}

// NewJudge creates a Judge over the given scoring backend.
func NewJudge(backend ScoreBackend, opts ...JudgeOption) *Judge {
	j := &Judge{
		backend:         backend,
		callTimeout:     30 * time.Second,
		maxRetries:      2,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// ScoreAll scores every proposal concurrently, joins on all of them, and
// returns the deterministic ranking. It returns ctx.Err() when the round was
// cancelled mid-scoring; individual scoring failures never fail the round.
func (j *Judge) ScoreAll(ctx context.Context, task *Task, proposals []Proposal) ([]RankedProposal, error) {
	scored := make([]RankedProposal, len(proposals))

	var g errgroup.Group
	for i, p := range proposals {
		j.emit(ProgressEvent{Phase: PhaseScoring, Actor: p.SpecialistID, Status: ProgressPending})

		g.Go(func() error {
			j.emit(ProgressEvent{Phase: PhaseScoring, Actor: p.SpecialistID, Status: ProgressWorking})

			score, err := j.scoreOne(ctx, task, p)
			if err != nil {
				// Degrade, never exclude: the synthetic score keeps the
				// proposal in the ranking with a manual-review flag.
				score = syntheticReviewScore()
				j.emit(ProgressEvent{
					Phase:   PhaseScoring,
					Actor:   p.SpecialistID,
					Status:  ProgressFailed,
					Message: err.Error(),
				})
			} else {
				j.emit(ProgressEvent{Phase: PhaseScoring, Actor: p.SpecialistID, Status: ProgressComplete})
			}
			scored[i] = RankedProposal{Proposal: p, Score: score}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return RankProposals(scored), nil
}

// scoreOne runs one scoring call with bounded exponential backoff.
func (j *Judge) scoreOne(ctx context.Context, task *Task, p Proposal) (RubricScore, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = j.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, j.maxRetries), ctx)

	return backoff.RetryWithData(func() (RubricScore, error) {
		callCtx, cancel := context.WithTimeout(ctx, j.callTimeout)
		defer cancel()
		return j.backend.Score(callCtx, task, p)
	}, policy)
}

func (j *Judge) emit(ev ProgressEvent) {
	if j.onProgress != nil {
		j.onProgress(ev)
	}
}
