package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/quorum/internal/engine"
	"github.com/dusk-indust/quorum/internal/manifest"
	"github.com/dusk-indust/quorum/internal/provider"
	"github.com/dusk-indust/quorum/internal/report"
)

// EditService handles MCP tool calls. Each call runs one full round against a
// fresh manifest snapshot, so concurrent tool calls contend only on the
// manifest file lock, never on shared in-process state.
type EditService struct {
	client       provider.Client
	backend      engine.ScoreBackend
	roster       []engine.SpecialistDescriptor
	manifestPath string
	syncCommand  []string
}

// NewEditService creates an EditService. The manifest path is the default for
// tool calls that do not name one.
func NewEditService(client provider.Client, backend engine.ScoreBackend, roster []engine.SpecialistDescriptor, manifestPath string, syncCommand []string) *EditService {
	return &EditService{
		client:       client,
		backend:      backend,
		roster:       roster,
		manifestPath: manifestPath,
		syncCommand:  syncCommand,
	}
}

// PreviewTask runs a dry-run round: full collection, scoring, selection, and
// extraction, with the would-be diff computed but nothing written.
func (s *EditService) PreviewTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PreviewTaskInput,
) (*mcp.CallToolResult, PreviewTaskOutput, error) {
	res, err := s.runRound(ctx, engine.ModeDryRun, input.Request, input.Manifest, true)
	if err != nil {
		return nil, PreviewTaskOutput{}, err
	}
	return nil, PreviewTaskOutput{
		RoundID: res.RoundID,
		Winner:  res.Winner.Proposal.SpecialistID,
		Total:   res.Winner.Score.Total,
		Edits:   res.Edits,
		Diff:    res.Diff,
	}, nil
}

// ApplyTask runs a full apply round and persists the winning edits.
func (s *EditService) ApplyTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ApplyTaskInput,
) (*mcp.CallToolResult, ApplyTaskOutput, error) {
	res, err := s.runRound(ctx, engine.ModeApply, input.Request, input.Manifest, input.SkipSync)
	if err != nil {
		return nil, ApplyTaskOutput{}, err
	}
	out := ApplyTaskOutput{
		RoundID:       res.RoundID,
		Winner:        res.Winner.Proposal.SpecialistID,
		Total:         res.Winner.Score.Total,
		Edits:         res.Edits,
		Diff:          res.Diff,
		Applied:       res.Applied,
		SyncAttempted: res.Sync.Attempted,
	}
	if res.Sync.Err != nil {
		out.SyncError = res.Sync.Err.Error()
	}
	return nil, out, nil
}

// RankProposals runs a show-all round and returns the full ranking without
// extracting or applying anything.
func (s *EditService) RankProposals(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RankProposalsInput,
) (*mcp.CallToolResult, RankProposalsOutput, error) {
	res, err := s.runRound(ctx, engine.ModeShowAll, input.Request, input.Manifest, true)
	if err != nil {
		return nil, RankProposalsOutput{}, err
	}
	export := report.ExportRound(res)
	return nil, RankProposalsOutput{
		RoundID: res.RoundID,
		Ranked:  export.Ranked,
	}, nil
}

func (s *EditService) runRound(ctx context.Context, mode engine.Mode, request, manifestPath string, skipSync bool) (*engine.RoundResult, error) {
	if request == "" {
		return nil, fmt.Errorf("request is required")
	}
	if manifestPath == "" {
		manifestPath = s.manifestPath
	}
	doc, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	o, err := engine.NewOrchestrator(engine.Config{
		Mode:        mode,
		Roster:      s.roster,
		SkipSync:    skipSync,
		SyncCommand: s.syncCommand,
	}, s.client, s.backend)
	if err != nil {
		return nil, err
	}
	defer o.Close()

	return o.Run(ctx, &engine.Task{Request: request, Manifest: doc})
}
