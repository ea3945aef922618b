package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Encore7/codebase-explainer-agent/internal/llm"
	"github.com/Encore7/codebase-explainer-agent/internal/vectordb"
)

// fakeStore returns canned retrieval results.
type fakeStore struct {
	results []vectordb.SearchResult
	err     error
	gotTopK int
}

func (s *fakeStore) Query(ctx context.Context, repoID, question string, topK int) ([]vectordb.SearchResult, error) {
	s.gotTopK = topK
	if s.err != nil {
		return nil, s.err
	}
	if topK < len(s.results) {
		return s.results[:topK], nil
	}
	return s.results, nil
}

func (s *fakeStore) Upsert(ctx context.Context, repoID string, docs []vectordb.Document) error {
	return nil
}
func (s *fakeStore) Count(repoID string) int                      { return len(s.results) }
func (s *fakeStore) Persist(ctx context.Context, dir string) error { return nil }
func (s *fakeStore) Load(ctx context.Context, dir string) error    { return nil }

// scriptedProvider answers Complete calls in order and serves a fixed token
// stream for CompleteStream.
type scriptedProvider struct {
	completions []string
	failAt      int // 1-based Complete call index to fail at; 0 disables
	calls       int
	lastReq     llm.CompletionRequest
	streamToks  []string
	streamErr   error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	p.lastReq = req
	if p.failAt != 0 && p.calls == p.failAt {
		return nil, fmt.Errorf("simulated completion failure")
	}
	content := "summary"
	if p.calls <= len(p.completions) {
		content = p.completions[p.calls-1]
	}
	return &llm.CompletionResponse{Content: content, FinishReason: "stop"}, nil
}

func (p *scriptedProvider) CompleteStream(ctx context.Context, req llm.CompletionRequest) (llm.Stream, error) {
	p.lastReq = req
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	return &tokenStream{tokens: p.streamToks}, nil
}

type tokenStream struct {
	tokens []string
	pos    int
}

func (s *tokenStream) Recv() (string, error) {
	if s.pos >= len(s.tokens) {
		return "", io.EOF
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

func (s *tokenStream) Close() error { return nil }

func testResults(n int) []vectordb.SearchResult {
	results := make([]vectordb.SearchResult, n)
	for i := range results {
		results[i] = vectordb.SearchResult{
			Document: vectordb.Document{
				ID:      fmt.Sprintf("hash%040d:file%d.go", i, i),
				Content: fmt.Sprintf("commit message %d\ndiff --git a/file%d.go", i, i),
				Metadata: vectordb.Metadata{
					Commit: fmt.Sprintf("%040d", i),
					Path:   fmt.Sprintf("file%d.go", i),
					Author: "Test Author",
					Date:   time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC),
				},
			},
			Similarity: 1 - float32(i)*0.1,
		}
	}
	return results
}

func TestRetrieveUsesConfiguredTopK(t *testing.T) {
	store := &fakeStore{results: testResults(10)}
	a := New(store, &scriptedProvider{}, "m", "m", 5, nil)

	r, err := a.Retrieve(context.Background(), Question{RepoID: "abc", Text: "why?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.gotTopK != 5 {
		t.Errorf("expected topK 5, got %d", store.gotTopK)
	}
	if len(r.Results) != 5 {
		t.Errorf("expected 5 results, got %d", len(r.Results))
	}
}

func TestAnswerEmptyIndexStillStreams(t *testing.T) {
	provider := &scriptedProvider{streamToks: []string{"no matching history"}}
	a := New(&fakeStore{}, provider, "m", "m", 5, nil)

	stream, err := a.Answer(context.Background(), Question{RepoID: "abc", Text: "why?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	tok, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if tok != "no matching history" {
		t.Errorf("unexpected token %q", tok)
	}
	// No chunks means no summarization calls; compose runs with an
	// empty commit list.
	if provider.calls != 0 {
		t.Errorf("expected no Complete calls, got %d", provider.calls)
	}
	prompt := provider.lastReq.Messages[len(provider.lastReq.Messages)-1].Content
	if !strings.Contains(prompt, "why?") {
		t.Errorf("compose prompt missing question: %q", prompt)
	}
}

func TestSummarizePreservesOrder(t *testing.T) {
	store := &fakeStore{results: testResults(3)}
	provider := &scriptedProvider{completions: []string{"first", "second", "third"}}
	a := New(store, provider, "summary-model", "compose-model", 5, nil)

	r, err := a.Retrieve(context.Background(), Question{RepoID: "abc", Text: "why?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err := a.Summarize(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.Summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(s.Summaries))
	}
	for i, want := range []string{"first", "second", "third"} {
		if s.Summaries[i].Text != want {
			t.Errorf("summary %d: expected %q, got %q", i, want, s.Summaries[i].Text)
		}
		if s.Summaries[i].Commit != r.Results[i].Document.Metadata.Commit {
			t.Errorf("summary %d cites wrong commit", i)
		}
	}

	if provider.lastReq.Model != "summary-model" {
		t.Errorf("expected summary model, got %q", provider.lastReq.Model)
	}
}

func TestSummarizeStrictFailure(t *testing.T) {
	store := &fakeStore{results: testResults(3)}
	provider := &scriptedProvider{failAt: 2}
	a := New(store, provider, "m", "m", 5, nil)

	r, _ := a.Retrieve(context.Background(), Question{RepoID: "abc", Text: "why?"})
	_, err := a.Summarize(context.Background(), r)
	if err == nil {
		t.Fatal("expected error when one chunk fails to summarize")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "summarize" {
		t.Errorf("expected summarize StageError, got %v", err)
	}
}

func TestComposeStreamsAnswer(t *testing.T) {
	store := &fakeStore{results: testResults(2)}
	provider := &scriptedProvider{
		completions: []string{"sum one", "sum two"},
		streamToks:  []string{"the ", "answer"},
	}
	a := New(store, provider, "summary-model", "compose-model", 5, nil)

	stream, err := a.Answer(context.Background(), Question{RepoID: "abc", Text: "what happened to file0?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	var got string
	for {
		tok, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got += tok
	}
	if got != "the answer" {
		t.Errorf("expected 'the answer', got %q", got)
	}

	// The compose prompt carries the question, numbered summaries, and
	// short commit hashes.
	prompt := provider.lastReq.Messages[len(provider.lastReq.Messages)-1].Content
	if !strings.Contains(prompt, "what happened to file0?") {
		t.Error("compose prompt missing the question")
	}
	if !strings.Contains(prompt, "1. commit") || !strings.Contains(prompt, "2. commit") {
		t.Error("compose prompt missing numbered summaries")
	}
	if !strings.Contains(prompt, "sum one") || !strings.Contains(prompt, "sum two") {
		t.Error("compose prompt missing summary text")
	}
	if provider.lastReq.Model != "compose-model" {
		t.Errorf("expected compose model, got %q", provider.lastReq.Model)
	}
}

func TestComposeStageError(t *testing.T) {
	store := &fakeStore{results: testResults(1)}
	provider := &scriptedProvider{streamErr: fmt.Errorf("simulated stream failure")}
	a := New(store, provider, "m", "m", 5, nil)

	_, err := a.Answer(context.Background(), Question{RepoID: "abc", Text: "why?"})
	if err == nil {
		t.Fatal("expected error")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "compose" {
		t.Errorf("expected compose StageError, got %v", err)
	}
}
