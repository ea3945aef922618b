package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Encore7/codebase-explainer-agent/internal/agent"
	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
	"github.com/Encore7/codebase-explainer-agent/internal/vectordb"
)

// handleAskRepository runs a full answer pipeline and drains the answer
// stream into a single text result.
func (s *Server) handleAskRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoID, err := request.RequireString("repo_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: repo_id"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	if result := s.requireDoneJob(ctx, repoID); result != nil {
		return result, nil
	}

	stream, err := s.answerer.Answer(ctx, agent.Question{RepoID: repoID, Text: question})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		token, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("answer interrupted: %v", err)), nil
		}
		sb.WriteString(token)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearchHistory performs retrieval only, without summarization.
func (s *Server) handleSearchHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoID, err := request.RequireString("repo_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: repo_id"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	results, err := s.store.Query(ctx, repoID, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The repository may not be ingested yet."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleIngestStatus reports one ingestion job's state.
func (s *Server) handleIngestStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoID, err := request.RequireString("repo_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: repo_id"), nil
	}

	job, err := s.jobs.Get(ctx, repoID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status lookup failed: %v", err)), nil
	}
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no ingestion job with id %q", repoID)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Repository: %s\n", job.SourceURL)
	fmt.Fprintf(&sb, "Id: %s\n", job.ID)
	fmt.Fprintf(&sb, "Status: %s\n", job.Status)
	if job.Error != "" {
		fmt.Fprintf(&sb, "Error: %s\n", job.Error)
	}
	fmt.Fprintf(&sb, "Updated: %s\n", job.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Indexed documents: %d\n", s.store.Count(job.ID))

	return mcp.NewToolResultText(sb.String()), nil
}

// requireDoneJob returns an error result unless the job exists and has
// finished successfully.
func (s *Server) requireDoneJob(ctx context.Context, repoID string) *mcp.CallToolResult {
	job, err := s.jobs.Get(ctx, repoID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status lookup failed: %v", err))
	}
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no ingestion job with id %q", repoID))
	}
	if job.Status != jobs.StatusDone {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion not complete: status %s", job.Status))
	}
	return nil
}

// formatSearchResults converts retrieval results into a rich text format
// optimized for AI agent consumption.
func formatSearchResults(results []vectordb.SearchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)

		commit := r.Document.Metadata.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fmt.Fprintf(&sb, "Commit: %s\n", commit)
		fmt.Fprintf(&sb, "File: %s\n", r.Document.Metadata.Path)
		if r.Document.Metadata.Author != "" {
			fmt.Fprintf(&sb, "Author: %s\n", r.Document.Metadata.Author)
		}
		if !r.Document.Metadata.Date.IsZero() {
			fmt.Fprintf(&sb, "Date: %s\n", r.Document.Metadata.Date.Format(time.DateOnly))
		}
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n", r.Similarity*100)

		sb.WriteString("\n")
		content := r.Document.Content
		if len(content) > 2000 {
			content = content[:2000] + "\n[truncated]"
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return sb.String()
}
