package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Encore7/codebase-explainer-agent/internal/llm"
	"github.com/Encore7/codebase-explainer-agent/internal/vectordb"
)

// Agent answers questions about an ingested repository's history. It runs
// the pipeline retrieve, summarize, compose; each stage consumes the
// previous stage's output and a failure surfaces as a *StageError.
type Agent struct {
	store        vectordb.Store
	provider     llm.Provider
	summaryModel string
	composeModel string
	topK         int
	logger       *slog.Logger
}

// New creates an agent. topK below 1 falls back to 5.
func New(store vectordb.Store, provider llm.Provider, summaryModel, composeModel string, topK int, logger *slog.Logger) *Agent {
	if topK < 1 {
		topK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		store:        store,
		provider:     provider,
		summaryModel: summaryModel,
		composeModel: composeModel,
		topK:         topK,
		logger:       logger,
	}
}

// Retrieve finds the history chunks most similar to the question. Fewer
// than topK results is not an error, and an empty collection yields an
// empty set: the answer is then composed from no summaries.
func (a *Agent) Retrieve(ctx context.Context, q Question) (*Retrieved, error) {
	results, err := a.store.Query(ctx, q.RepoID, q.Text, a.topK)
	if err != nil {
		return nil, &StageError{Stage: "retrieve", Err: err}
	}

	a.logger.Debug("retrieved history chunks", "repo", q.RepoID, "count", len(results))
	return &Retrieved{Question: q, Results: results}, nil
}

// Summarize produces one plain-English summary per retrieved chunk, in
// retrieval order. Any chunk failing to summarize fails the stage.
func (a *Agent) Summarize(ctx context.Context, r *Retrieved) (*Summarized, error) {
	summaries := make([]Summary, 0, len(r.Results))

	for _, result := range r.Results {
		doc := result.Document
		resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
			Model:    a.summaryModel,
			Messages: buildSummaryMessages(doc.Metadata.Path, doc.Content),
		})
		if err != nil {
			return nil, &StageError{Stage: "summarize", Err: fmt.Errorf("chunk %s: %w", doc.ID, err)}
		}

		summaries = append(summaries, Summary{
			Commit: doc.Metadata.Commit,
			Path:   doc.Metadata.Path,
			Author: doc.Metadata.Author,
			Date:   doc.Metadata.Date.Format(time.DateOnly),
			Text:   resp.Content,
		})
	}

	return &Summarized{Retrieved: *r, Summaries: summaries}, nil
}

// Compose streams the final answer built from the chunk summaries.
// Cancelling ctx aborts the stream mid-answer.
func (a *Agent) Compose(ctx context.Context, s *Summarized) (llm.Stream, error) {
	stream, err := a.provider.CompleteStream(ctx, llm.CompletionRequest{
		Model:    a.composeModel,
		Messages: buildComposeMessages(s.Text, s.Summaries),
	})
	if err != nil {
		return nil, &StageError{Stage: "compose", Err: err}
	}
	return stream, nil
}

// Answer runs the full pipeline for one question and returns the answer
// stream.
func (a *Agent) Answer(ctx context.Context, q Question) (llm.Stream, error) {
	retrieved, err := a.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}
	summarized, err := a.Summarize(ctx, retrieved)
	if err != nil {
		return nil, err
	}
	return a.Compose(ctx, summarized)
}
