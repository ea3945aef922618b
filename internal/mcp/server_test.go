package mcp

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Encore7/codebase-explainer-agent/internal/agent"
	"github.com/Encore7/codebase-explainer-agent/internal/db"
	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
	"github.com/Encore7/codebase-explainer-agent/internal/llm"
	"github.com/Encore7/codebase-explainer-agent/internal/vectordb"
)

// mockStore implements vectordb.Store for testing.
type mockStore struct {
	docs map[string][]vectordb.Document
}

func newMockStore() *mockStore {
	return &mockStore{docs: map[string][]vectordb.Document{}}
}

func (m *mockStore) Upsert(_ context.Context, repoID string, docs []vectordb.Document) error {
	m.docs[repoID] = append(m.docs[repoID], docs...)
	return nil
}

func (m *mockStore) Query(_ context.Context, repoID, query string, topK int) ([]vectordb.SearchResult, error) {
	var results []vectordb.SearchResult
	for _, doc := range m.docs[repoID] {
		results = append(results, vectordb.SearchResult{Document: doc, Similarity: 0.95})
		if len(results) >= topK {
			break
		}
	}
	return results, nil
}

func (m *mockStore) Count(repoID string) int                      { return len(m.docs[repoID]) }
func (m *mockStore) Persist(_ context.Context, _ string) error    { return nil }
func (m *mockStore) Load(_ context.Context, _ string) error       { return nil }

// mockAnswerer streams a fixed answer.
type mockAnswerer struct {
	tokens []string
	err    error
	gotQ   agent.Question
}

func (m *mockAnswerer) Answer(_ context.Context, q agent.Question) (llm.Stream, error) {
	m.gotQ = q
	if m.err != nil {
		return nil, m.err
	}
	return &fixedStream{tokens: m.tokens}, nil
}

type fixedStream struct {
	tokens []string
	pos    int
}

func (s *fixedStream) Recv() (string, error) {
	if s.pos >= len(s.tokens) {
		return "", io.EOF
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

func (s *fixedStream) Close() error { return nil }

func setupServer(t *testing.T, answerer Answerer, store vectordb.Store) (*Server, *jobs.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	jobStore := jobs.NewStore(database)
	return NewServer(answerer, store, jobStore), jobStore
}

func createDoneJob(t *testing.T, jobStore *jobs.Store) *jobs.Job {
	t.Helper()
	ctx := context.Background()
	job, err := jobStore.Create(ctx, "https://example.com/repo.git")
	if err != nil {
		t.Fatalf("creating job: %v", err)
	}
	if err := jobStore.SetStatus(ctx, job.ID, jobs.StatusInProgress, ""); err != nil {
		t.Fatalf("setting status: %v", err)
	}
	if err := jobStore.SetStatus(ctx, job.ID, jobs.StatusDone, ""); err != nil {
		t.Fatalf("setting status: %v", err)
	}
	return job
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"ask_repository", askRepositoryTool, "ask_repository"},
		{"search_history", searchHistoryTool, "search_history"},
		{"ingest_status", ingestStatusTool, "ingest_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestHandleAskRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("drains stream into text", func(t *testing.T) {
		answerer := &mockAnswerer{tokens: []string{"the ", "answer"}}
		srv, jobStore := setupServer(t, answerer, newMockStore())
		job := createDoneJob(t, jobStore)

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"repo_id":  job.ID,
			"question": "what changed?",
		}

		result, err := srv.handleAskRepository(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if answerer.gotQ.RepoID != job.ID || answerer.gotQ.Text != "what changed?" {
			t.Errorf("unexpected question %+v", answerer.gotQ)
		}

		text, ok := result.Content[0].(mcp.TextContent)
		if !ok {
			t.Fatalf("expected text content, got %T", result.Content[0])
		}
		if text.Text != "the answer" {
			t.Errorf("expected 'the answer', got %q", text.Text)
		}
	})

	t.Run("refused before ingestion done", func(t *testing.T) {
		srv, jobStore := setupServer(t, &mockAnswerer{tokens: []string{"x"}}, newMockStore())
		job, err := jobStore.Create(ctx, "https://example.com/other.git")
		if err != nil {
			t.Fatalf("creating job: %v", err)
		}

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"repo_id":  job.ID,
			"question": "what changed?",
		}

		result, err := srv.handleAskRepository(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error while ingestion is pending")
		}
	})

	t.Run("unknown repository", func(t *testing.T) {
		srv, _ := setupServer(t, &mockAnswerer{}, newMockStore())

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"repo_id":  "nope",
			"question": "what changed?",
		}

		result, err := srv.handleAskRepository(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unknown repository")
		}
	})

	t.Run("missing question", func(t *testing.T) {
		srv, _ := setupServer(t, &mockAnswerer{}, newMockStore())

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"repo_id": "abc"}

		result, err := srv.handleAskRepository(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing question")
		}
	})

	t.Run("pipeline failure", func(t *testing.T) {
		answerer := &mockAnswerer{err: fmt.Errorf("summarization failed")}
		srv, jobStore := setupServer(t, answerer, newMockStore())
		job := createDoneJob(t, jobStore)

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"repo_id":  job.ID,
			"question": "why?",
		}

		result, err := srv.handleAskRepository(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error from failed pipeline")
		}
	})
}

func TestHandleSearchHistory(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.docs["abc12345"] = []vectordb.Document{
		{
			ID:      "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef:main.go",
			Content: "fix crash on startup\ndiff --git a/main.go",
			Metadata: vectordb.Metadata{
				Commit: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
				Path:   "main.go",
				Author: "Test Author",
				Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	srv, _ := setupServer(t, &mockAnswerer{}, store)

	t.Run("formats results", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"repo_id": "abc12345",
			"query":   "startup crash",
		}

		result, err := srv.handleSearchHistory(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}

		text := result.Content[0].(mcp.TextContent).Text
		if !strings.Contains(text, "deadbeef") {
			t.Error("result missing short commit hash")
		}
		if !strings.Contains(text, "main.go") {
			t.Error("result missing file path")
		}
	})

	t.Run("empty results are not an error", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"repo_id": "unknown",
			"query":   "anything",
		}

		result, err := srv.handleSearchHistory(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("empty results should not be an error")
		}
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"repo_id": "abc12345"}

		result, err := srv.handleSearchHistory(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})
}

func TestHandleIngestStatus(t *testing.T) {
	ctx := context.Background()
	srv, jobStore := setupServer(t, &mockAnswerer{}, newMockStore())
	job := createDoneJob(t, jobStore)

	t.Run("reports job state", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"repo_id": job.ID}

		result, err := srv.handleIngestStatus(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}

		text := result.Content[0].(mcp.TextContent).Text
		if !strings.Contains(text, string(jobs.StatusDone)) {
			t.Error("result missing job status")
		}
		if !strings.Contains(text, job.SourceURL) {
			t.Error("result missing source URL")
		}
	})

	t.Run("unknown job", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"repo_id": "nope"}

		result, err := srv.handleIngestStatus(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unknown job")
		}
	})
}
