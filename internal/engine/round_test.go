package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/quorum/internal/manifest"
	"github.com/dusk-indust/quorum/internal/provider"
)

const roundManifest = `name: demo
version: 0.1.0
dependencies:
  - requests
  - flask>=2.3
optional-dependencies:
  dev:
    - black
`

func newRoundTask(t *testing.T, request string) (string, *Task) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(roundManifest), 0o644))

	doc, err := manifest.Load(path)
	require.NoError(t, err)
	return path, &Task{Request: request, Manifest: doc}
}

func readManifest(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// scriptedClient answers each built-in role with a fixed well-formed
// completion. The config proposal carries a version lower bound, which the
// heuristic backend ranks above the unversioned workflow proposal.
func scriptedClient() clientFunc {
	return func(_ context.Context, req provider.Request) (*provider.Response, error) {
		switch req.Role {
		case "config-specialist":
			return &provider.Response{Content: "A lower bound on pandas keeps the runtime environment reproducible without pinning.\nCONFIDENCE: 0.9\nACTIONS:\n[{\"op\":\"add\",\"package\":\"pandas\",\"version\":\">=2.0\"}]"}, nil
		case "workflow-specialist":
			return &provider.Response{Content: "Pytest belongs in the dev group rather than in the runtime dependency list.\nCONFIDENCE: 0.8\nACTIONS:\n[{\"op\":\"add\",\"package\":\"pytest\",\"group\":\"dev\"}]"}, nil
		}
		return nil, fmt.Errorf("unexpected role %q", req.Role)
	}
}

func roundConfig(mode Mode) Config {
	return Config{
		Mode:     mode,
		Roster:   testRoster("config-specialist", "workflow-specialist"),
		SkipSync: true,
	}
}

func TestRun_ApplyModePersistsWinningEdit(t *testing.T) {
	path, task := newRoundTask(t, "add pandas")
	o, err := NewOrchestrator(roundConfig(ModeApply), scriptedClient(), HeuristicScorer{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, res.Phase)
	assert.NotEmpty(t, res.RoundID)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "config-specialist", res.Winner.Proposal.SpecialistID)
	assert.Equal(t, 1, res.Winner.Rank)
	require.Len(t, res.Edits, 1)
	assert.True(t, res.Applied)
	assert.True(t, res.Sync.Skipped)

	content := readManifest(t, path)
	assert.Contains(t, content, "  - pandas>=2.0\n")
	assert.Contains(t, content, "  - flask>=2.3\n")
	assert.Contains(t, res.Diff, "+  - pandas>=2.0")
}

func TestRun_EmitsPhaseProgress(t *testing.T) {
	_, task := newRoundTask(t, "add pandas")
	o, err := NewOrchestrator(roundConfig(ModeApply), scriptedClient(), HeuristicScorer{})
	require.NoError(t, err)

	_, err = o.Run(context.Background(), task)
	require.NoError(t, err)
	o.Close()

	var applied bool
	for ev := range o.Progress() {
		if ev.Phase == PhaseApplying && ev.Status == ProgressComplete {
			applied = true
		}
	}
	assert.True(t, applied, "expected an applying-complete event")
}

func TestRun_DryRunLeavesManifestUntouched(t *testing.T) {
	path, task := newRoundTask(t, "add pandas")
	o, err := NewOrchestrator(roundConfig(ModeDryRun), scriptedClient(), HeuristicScorer{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, res.Phase)
	assert.False(t, res.Applied)
	assert.True(t, res.Sync.Skipped)
	require.NotNil(t, res.Winner)
	assert.Contains(t, res.Diff, "+  - pandas>=2.0")
	assert.Equal(t, roundManifest, readManifest(t, path))
}

func TestRun_ShowAllStopsAfterRanking(t *testing.T) {
	path, task := newRoundTask(t, "add pandas")
	o, err := NewOrchestrator(roundConfig(ModeShowAll), scriptedClient(), HeuristicScorer{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, res.Phase)
	assert.Nil(t, res.Winner)
	assert.Empty(t, res.Edits)
	assert.False(t, res.Applied)
	require.Len(t, res.Ranked, 2)
	assert.Equal(t, "config-specialist", res.Ranked[0].Proposal.SpecialistID)
	assert.Equal(t, 1, res.Ranked[0].Rank)
	assert.Equal(t, 2, res.Ranked[1].Rank)
	assert.Equal(t, roundManifest, readManifest(t, path))
}

func TestRun_PartialSpecialistFailureStillCompletes(t *testing.T) {
	path, task := newRoundTask(t, "add pandas")
	script := scriptedClient()
	client := clientFunc(func(ctx context.Context, req provider.Request) (*provider.Response, error) {
		if req.Role == "workflow-specialist" {
			return nil, errors.New("backend unavailable")
		}
		return script(ctx, req)
	})

	o, err := NewOrchestrator(roundConfig(ModeApply), client, HeuristicScorer{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), task)
	require.NoError(t, err)

	assert.True(t, res.Applied)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "workflow-specialist", res.Failures[0].SpecialistID)
	assert.Contains(t, readManifest(t, path), "pandas>=2.0")
}

func TestRun_AllSpecialistsFailAbortsRound(t *testing.T) {
	path, task := newRoundTask(t, "add pandas")
	client := clientFunc(func(_ context.Context, _ provider.Request) (*provider.Response, error) {
		return nil, errors.New("backend unavailable")
	})

	o, err := NewOrchestrator(roundConfig(ModeApply), client, HeuristicScorer{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), task)
	var roundErr *RoundError
	require.ErrorAs(t, err, &roundErr)
	assert.Equal(t, PhaseCollecting, roundErr.Phase)
	var agg *AggregateFailure
	assert.ErrorAs(t, err, &agg)

	assert.Equal(t, PhaseFailed, res.Phase)
	assert.Equal(t, roundManifest, readManifest(t, path))
}

func TestRun_UnextractableWinnerFailsRound(t *testing.T) {
	path, task := newRoundTask(t, "update django")
	client := clientFunc(func(_ context.Context, _ provider.Request) (*provider.Response, error) {
		// django is not in the manifest, so extraction must reject this.
		return &provider.Response{Content: "Django should move to a supported release for security fixes.\nCONFIDENCE: 0.9\nACTIONS:\n[{\"op\":\"update\",\"package\":\"django\",\"version\":\">=5.0\"}]"}, nil
	})

	o, err := NewOrchestrator(roundConfig(ModeApply), client, HeuristicScorer{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), task)
	var roundErr *RoundError
	require.ErrorAs(t, err, &roundErr)
	assert.Equal(t, PhaseExtracting, roundErr.Phase)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Equal(t, PhaseFailed, res.Phase)
	assert.Equal(t, roundManifest, readManifest(t, path))
}

func TestRun_SyncFailureDoesNotReopenRound(t *testing.T) {
	path, task := newRoundTask(t, "add pandas")
	cfg := roundConfig(ModeApply)
	cfg.SkipSync = false
	cfg.SyncCommand = []string{"sh", "-c", "exit 5"}

	o, err := NewOrchestrator(cfg, scriptedClient(), HeuristicScorer{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, res.Phase)
	assert.True(t, res.Applied)
	assert.True(t, res.Sync.Attempted)
	var syncErr *SyncError
	require.ErrorAs(t, res.Sync.Err, &syncErr)
	assert.Equal(t, 5, syncErr.ExitCode)

	// The committed write stays committed.
	assert.Contains(t, readManifest(t, path), "pandas>=2.0")
}

func TestRun_SyncReceivesManifestPath(t *testing.T) {
	_, task := newRoundTask(t, "add pandas")
	cfg := roundConfig(ModeApply)
	cfg.SkipSync = false
	cfg.SyncCommand = []string{"sh", "-c", `test -f "$QUORUM_MANIFEST"`}

	o, err := NewOrchestrator(cfg, scriptedClient(), HeuristicScorer{})
	require.NoError(t, err)

	res, err := o.Run(context.Background(), task)
	require.NoError(t, err)
	assert.True(t, res.Sync.Attempted)
	assert.NoError(t, res.Sync.Err)
}

func TestRun_CancellationDuringScoringAbortsCleanly(t *testing.T) {
	path, task := newRoundTask(t, "add pandas")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := backendFunc(func(_ context.Context, _ *Task, p Proposal) (RubricScore, error) {
		cancel()
		return HeuristicScorer{}.Score(context.Background(), task, p)
	})

	o, err := NewOrchestrator(roundConfig(ModeApply), scriptedClient(), backend)
	require.NoError(t, err)

	res, err := o.Run(ctx, task)
	var roundErr *RoundError
	require.ErrorAs(t, err, &roundErr)
	assert.Equal(t, PhaseScoring, roundErr.Phase)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, PhaseFailed, res.Phase)
	assert.Equal(t, roundManifest, readManifest(t, path))
}

type syncRunnerFunc func(ctx context.Context, manifestPath string) error

func (f syncRunnerFunc) Sync(ctx context.Context, manifestPath string) error {
	return f(ctx, manifestPath)
}

func TestRun_SyncDetachedFromCallerCancellation(t *testing.T) {
	path, task := newRoundTask(t, "add pandas")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := roundConfig(ModeApply)
	cfg.SkipSync = false
	o, err := NewOrchestrator(cfg, scriptedClient(), HeuristicScorer{})
	require.NoError(t, err)

	var sawLiveContext bool
	o.sync = syncRunnerFunc(func(syncCtx context.Context, manifestPath string) error {
		// Cancelling the caller's context after the apply point must not
		// reach the detached sync context.
		cancel()
		sawLiveContext = syncCtx.Err() == nil
		assert.Equal(t, path, manifestPath)
		return nil
	})

	res, err := o.Run(ctx, task)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.Sync.Attempted)
	assert.True(t, sawLiveContext)
	assert.Contains(t, readManifest(t, path), "pandas>=2.0")
}
