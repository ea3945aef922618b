package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Encore7/codebase-explainer-agent/internal/embeddings"
	"github.com/Encore7/codebase-explainer-agent/internal/gitwalk"
	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
	"github.com/Encore7/codebase-explainer-agent/internal/progress"
	"github.com/Encore7/codebase-explainer-agent/internal/vectordb"
)

// Pipeline turns a repository's commit history into embedded documents in
// the vector store. One Pipeline is safe to reuse across jobs.
type Pipeline struct {
	jobs      *jobs.Store
	store     vectordb.Store
	embedder  *embeddings.RetryEmbedder
	batchSize int
	walkOpts  gitwalk.Options
	logger    *slog.Logger

	// Reporter, when set, receives per-record progress updates.
	Reporter progress.Reporter
}

// Result summarizes one ingestion run.
type Result struct {
	// Indexed is the number of documents written to the vector store.
	Indexed int
	// Skipped counts records whose embedding failed after retries.
	Skipped int
	// Dropped counts records lost to failed batch writes.
	Dropped int
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(jobStore *jobs.Store, store vectordb.Store, embedder *embeddings.RetryEmbedder, batchSize int, walkOpts gitwalk.Options, logger *slog.Logger) *Pipeline {
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		jobs:      jobStore,
		store:     store,
		embedder:  embedder,
		batchSize: batchSize,
		walkOpts:  walkOpts,
		logger:    logger,
	}
}

// Run executes the full ingestion for one job: walk the repository's
// history, embed each changed file, and upsert the survivors batch by
// batch. The job's status is moved to in_progress at the start and to done
// or failed at the end.
//
// A record whose embedding fails after retries is skipped. A batch whose
// vector-store write fails is dropped and logged. Neither fails the job;
// only an unreadable repository or a cancelled context does.
func (p *Pipeline) Run(ctx context.Context, job *jobs.Job) (*Result, error) {
	p.logger.Info("ingestion started", "job", job.ID, "url", job.SourceURL)

	res, err := p.run(ctx, job)
	if err != nil {
		// Status writes use the background context so a cancelled job
		// still records its failure.
		if serr := p.jobs.SetStatus(context.Background(), job.ID, jobs.StatusFailed, err.Error()); serr != nil {
			p.logger.Error("recording job failure", "job", job.ID, "error", serr)
		}
		return res, err
	}

	if err := p.jobs.SetStatus(ctx, job.ID, jobs.StatusDone, ""); err != nil {
		return res, fmt.Errorf("marking job done: %w", err)
	}

	p.logger.Info("ingestion finished",
		"job", job.ID, "indexed", res.Indexed, "skipped", res.Skipped, "dropped", res.Dropped)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, job *jobs.Job) (*Result, error) {
	res := &Result{}

	if err := p.jobs.SetStatus(ctx, job.ID, jobs.StatusInProgress, ""); err != nil {
		return res, fmt.Errorf("marking job in progress: %w", err)
	}

	walker, err := gitwalk.Open(ctx, job.SourceURL, p.walkOpts, p.logger)
	if err != nil {
		return res, err
	}
	defer walker.Close()

	if p.Reporter != nil {
		p.Reporter.Start(-1)
		defer p.Reporter.Finish()
	}

	batcher := NewBatcher(p.batchSize)
	seen := 0

	for walker.Next() {
		rec := walker.Record()
		seen++
		if p.Reporter != nil {
			p.Reporter.Update(seen, rec.CommitHash[:min(8, len(rec.CommitHash))]+" "+rec.FilePath)
		}

		if batch := batcher.Add(rec); batch != nil {
			if err := p.processBatch(ctx, job.ID, batch, res); err != nil {
				return res, err
			}
		}
	}
	if err := walker.Err(); err != nil {
		return res, fmt.Errorf("walking history: %w", err)
	}

	if batch := batcher.Flush(); batch != nil {
		if err := p.processBatch(ctx, job.ID, batch, res); err != nil {
			return res, err
		}
	}

	return res, nil
}

// processBatch embeds each record in the batch and upserts the survivors
// in one write.
func (p *Pipeline) processBatch(ctx context.Context, repoID string, batch []gitwalk.ChangeRecord, res *Result) error {
	docs := make([]vectordb.Document, 0, len(batch))

	for _, rec := range batch {
		text := rec.Message + "\n" + rec.DiffText

		vector, err := p.embedder.EmbedOne(ctx, text)
		if err != nil {
			var embedErr *embeddings.EmbedError
			if errors.As(err, &embedErr) {
				p.logger.Warn("skipping record after failed embedding",
					"repo", repoID, "commit", rec.CommitHash, "path", rec.FilePath,
					"attempts", embedErr.Attempts, "error", embedErr.Err)
				res.Skipped++
				continue
			}
			// Context cancellation and other non-item errors are fatal.
			return err
		}

		docs = append(docs, vectordb.Document{
			ID:        rec.DocumentID(),
			Content:   text,
			Embedding: vector,
			Metadata: vectordb.Metadata{
				Commit: rec.CommitHash,
				Path:   rec.FilePath,
				Author: rec.AuthorName,
				Date:   rec.CommitDate,
			},
		})
	}

	if len(docs) == 0 {
		return nil
	}

	if err := p.store.Upsert(ctx, repoID, docs); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Error("dropping batch after failed vector write",
			"repo", repoID, "size", len(docs), "error", err)
		res.Dropped += len(docs)
		return nil
	}

	res.Indexed += len(docs)
	return nil
}
