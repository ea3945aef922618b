package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/Encore7/codebase-explainer-agent/internal/agent"
	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
	"github.com/Encore7/codebase-explainer-agent/internal/llm"
	"github.com/Encore7/codebase-explainer-agent/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Answerer runs one answer pipeline per question. *agent.Agent implements it.
type Answerer interface {
	Answer(ctx context.Context, q agent.Question) (llm.Stream, error)
}

// Server wraps an MCP server that exposes repository history tools.
type Server struct {
	answerer Answerer
	store    vectordb.Store
	jobs     *jobs.Store
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(answerer Answerer, store vectordb.Store, jobStore *jobs.Store) *Server {
	s := &Server{
		answerer: answerer,
		store:    store,
		jobs:     jobStore,
	}

	s.mcp = server.NewMCPServer(
		"explainer",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askRepositoryTool, s.handleAskRepository)
	s.mcp.AddTool(searchHistoryTool, s.handleSearchHistory)
	s.mcp.AddTool(ingestStatusTool, s.handleIngestStatus)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
