package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dusk-indust/quorum/internal/config"
	"github.com/dusk-indust/quorum/internal/engine"
	"github.com/dusk-indust/quorum/internal/manifest"
	"github.com/dusk-indust/quorum/internal/mcptools"
	"github.com/dusk-indust/quorum/internal/provider"
	"github.com/dusk-indust/quorum/internal/report"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Manifest    string
	Diagnostics string
	Endpoint    string
	DryRun      bool
	ShowAll     bool
	SkipSync    bool
	JSON        bool
	Verbose     bool
	ServeMCP    bool
	MCPAddr     string
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("quorum", flag.ContinueOnError)
	fs.StringVar(&flags.Manifest, "manifest", "", "path to the project manifest (default: ./project.yaml)")
	fs.StringVar(&flags.Diagnostics, "diagnostics", "", "path to a JSON diagnostics file from the build tooling")
	fs.StringVar(&flags.Endpoint, "endpoint", "", "completion endpoint URL (default: deterministic local backend)")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "compute and show the would-be diff without writing")
	fs.BoolVar(&flags.ShowAll, "show-all", false, "show all ranked proposals and apply nothing")
	fs.BoolVar(&flags.SkipSync, "skip-sync", false, "skip the environment sync after a committed write")
	fs.BoolVar(&flags.JSON, "json", false, "emit the round result as JSON on stdout")
	fs.BoolVar(&flags.Verbose, "verbose", false, "stream per-specialist progress to stderr")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server instead of handling a single request")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", "", "listen address for the MCP HTTP transport (default: stdio)")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userCfg, err := config.LoadUser()
	if err != nil {
		return err
	}

	manifestPath := flags.Manifest
	if manifestPath == "" {
		manifestPath = manifest.DefaultFilename
	}
	projCfg, err := config.Load(filepath.Dir(manifestPath))
	if err != nil {
		return err
	}
	if flags.Manifest == "" && projCfg.Manifest != "" {
		manifestPath = projCfg.Manifest
	}

	client, backend, err := buildBackends(flags, userCfg)
	if err != nil {
		return err
	}

	roster := projCfg.Roster
	if len(roster) == 0 {
		roster, err = engine.DefaultRoster()
		if err != nil {
			return err
		}
	}

	if flags.ServeMCP {
		svc := mcptools.NewEditService(client, backend, roster, manifestPath, projCfg.SyncCommand)
		if flags.MCPAddr != "" {
			return mcptools.RunMCPServer(ctx, svc, flags.MCPAddr)
		}
		return mcptools.RunMCPServerStdio(ctx, mcptools.NewEditServer(svc))
	}

	request := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if request == "" {
		return fmt.Errorf("no request given; usage: quorum [flags] <request>")
	}

	doc, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	diags, err := loadDiagnostics(flags.Diagnostics)
	if err != nil {
		return err
	}

	cfg := engine.Config{
		Mode:        engine.ModeApply,
		Roster:      roster,
		SkipSync:    flags.SkipSync || projCfg.SkipSync,
		SyncCommand: projCfg.SyncCommand,
	}
	switch {
	case flags.ShowAll:
		cfg.Mode = engine.ModeShowAll
	case flags.DryRun:
		cfg.Mode = engine.ModeDryRun
	}
	if userCfg.TimeoutSeconds > 0 {
		cfg.SpecialistTimeout = time.Duration(userCfg.TimeoutSeconds) * time.Second
	}
	if userCfg.JudgeRetries > 0 {
		cfg.JudgeRetries = uint64(userCfg.JudgeRetries)
	}

	o, err := engine.NewOrchestrator(cfg, client, backend)
	if err != nil {
		return err
	}

	verbose := flags.Verbose || projCfg.Verbose
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range o.Progress() {
			if verbose || ev.Status == engine.ProgressFailed {
				fmt.Fprintln(os.Stderr, engine.FormatProgress(ev))
			}
		}
	}()

	res, runErr := o.Run(ctx, &engine.Task{
		Request:     request,
		Diagnostics: diags,
		Manifest:    doc,
	})
	o.Close()
	<-done

	if runErr != nil {
		if flags.JSON && res != nil {
			report.WriteJSON(os.Stdout, res)
		}
		return runErr
	}

	if flags.JSON {
		return report.WriteJSON(os.Stdout, res)
	}
	if cfg.Mode == engine.ModeShowAll {
		report.WriteRanking(os.Stdout, res.Ranked)
		return nil
	}
	report.WriteSummary(os.Stdout, res)
	return nil
}

// buildBackends selects the completion client and the scoring backend.
// A remote endpoint gets a remote judge over the same client; the local
// backend is paired with the deterministic heuristic judge.
func buildBackends(flags cliFlags, userCfg *config.UserConfig) (provider.Client, engine.ScoreBackend, error) {
	endpoint := flags.Endpoint
	if endpoint == "" && userCfg.Provider == "http" {
		endpoint = userCfg.Endpoint
	}
	if endpoint == "" {
		return provider.NewLocal(), engine.HeuristicScorer{}, nil
	}

	client := provider.NewHTTPClient(endpoint)
	scorer, err := engine.NewClientScorer(client)
	if err != nil {
		return nil, nil, err
	}
	return client, scorer, nil
}
