package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/quorum/internal/provider"
)

// PoolResult is the outcome of one specialist fan-out: per descriptor either
// a Proposal or a Failure record, never neither.
type PoolResult struct {
	Proposals []Proposal
	Failures  []SpecialistFailure
}

// SpecialistPool issues one independent backend call per configured
// specialist, concurrently, each with its own timeout and cancellation
// scope. Partial failure is expected: the round proceeds with whatever
// proposals succeeded. Unlike a fail-fast fan-out, one specialist's failure
// never cancels its siblings.
type SpecialistPool struct {
	client      provider.Client
	callTimeout time.Duration
	onProgress  func(ProgressEvent)
}

// PoolOption configures a SpecialistPool.
type PoolOption func(*SpecialistPool)

// WithCallTimeout bounds each individual specialist call.
func WithCallTimeout(d time.Duration) PoolOption {
	return func(p *SpecialistPool) { p.callTimeout = d }
}

// WithPoolProgress registers a progress callback. It is called synchronously
// from each specialist goroutine; it may be nil.
func WithPoolProgress(fn func(ProgressEvent)) PoolOption {
	return func(p *SpecialistPool) { p.onProgress = fn }
}

// NewSpecialistPool creates a pool that dispatches calls via client.
func NewSpecialistPool(client provider.Client, opts ...PoolOption) *SpecialistPool {
	p := &SpecialistPool{
		client:      client,
		callTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Collect runs the fan-out and joins on all calls. Per slot the outcome is a
// Proposal or a SpecialistFailure; the join barrier completes when every call
// has returned or exceeded its own timeout, so an unresponsive specialist can
// never block the round beyond its bound. Collect returns ctx.Err() when the
// round was cancelled, and AggregateFailure when zero proposals succeeded.
func (p *SpecialistPool) Collect(ctx context.Context, task *Task, roster []SpecialistDescriptor) (*PoolResult, error) {
	type slot struct {
		proposal *Proposal
		failure  *SpecialistFailure
	}
	slots := make([]slot, len(roster))
	prompt := task.Prompt()

	var g errgroup.Group
	for i, desc := range roster {
		p.emit(ProgressEvent{Phase: PhaseCollecting, Actor: desc.ID, Status: ProgressPending})

		g.Go(func() error {
			p.emit(ProgressEvent{Phase: PhaseCollecting, Actor: desc.ID, Status: ProgressWorking})

			callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
			defer cancel()

			resp, err := p.client.Complete(callCtx, provider.Request{
				Role:         desc.ID,
				Instructions: desc.Instructions,
				Prompt:       prompt,
			})
			if err != nil {
				slots[i].failure = &SpecialistFailure{
					SpecialistID: desc.ID,
					Err:          err,
					Reason:       err.Error(),
				}
				p.emit(ProgressEvent{
					Phase:   PhaseCollecting,
					Actor:   desc.ID,
					Status:  ProgressFailed,
					Message: err.Error(),
				})
				return nil // sibling calls keep running
			}

			proposal := ParseProposal(desc.ID, resp.Content)
			slots[i].proposal = &proposal
			p.emit(ProgressEvent{Phase: PhaseCollecting, Actor: desc.ID, Status: ProgressComplete})
			return nil
		})
	}

	// Join barrier: every call has resolved or timed out by here.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &PoolResult{}
	for _, s := range slots {
		switch {
		case s.proposal != nil:
			res.Proposals = append(res.Proposals, *s.proposal)
		case s.failure != nil:
			res.Failures = append(res.Failures, *s.failure)
		}
	}

	if len(res.Proposals) == 0 {
		return nil, &AggregateFailure{Failures: res.Failures}
	}
	return res, nil
}

func (p *SpecialistPool) emit(ev ProgressEvent) {
	if p.onProgress != nil {
		p.onProgress(ev)
	}
}
