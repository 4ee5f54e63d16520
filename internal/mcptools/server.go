package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewEditServer creates an MCP server with the 3 manifest-editing tools
// registered: preview_task, apply_task, and rank_proposals.
func NewEditServer(svc *EditService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "quorum",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_task",
		Description: "Run a dry-run round for a natural-language dependency request: collect specialist proposals, score and rank them, and return the winning edits and diff without writing anything.",
	}, svc.PreviewTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_task",
		Description: "Run a full round for a natural-language dependency request and apply the winning edits to the project manifest atomically. Optionally signals the environment sync afterwards.",
	}, svc.ApplyTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rank_proposals",
		Description: "Collect and score all specialist proposals for a request and return the full ranked list with per-dimension rubric scores. Applies nothing.",
	}, svc.RankProposals)

	return server
}

// RunMCPServer starts an HTTP server exposing the manifest-editing MCP tools.
func RunMCPServer(ctx context.Context, svc *EditService, addr string) error {
	server := NewEditServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
