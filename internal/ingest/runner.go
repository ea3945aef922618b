package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
	"github.com/Encore7/codebase-explainer-agent/internal/vectordb"
)

// Runner executes ingestion jobs in the background, one at a time. It
// implements jobs.Scheduler for the HTTP API.
type Runner struct {
	pipeline *Pipeline
	store    vectordb.Store
	dataDir  string
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup
}

// NewRunner creates a runner. dataDir is where the vector store snapshot is
// persisted after each job; empty disables persistence.
func NewRunner(pipeline *Pipeline, store vectordb.Store, dataDir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		pipeline: pipeline,
		store:    store,
		dataDir:  dataDir,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sem:      make(chan struct{}, 1),
	}
}

// Schedule starts the job in the background. Jobs queue behind the single
// in-flight slot rather than running concurrently.
func (r *Runner) Schedule(job *jobs.Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		select {
		case r.sem <- struct{}{}:
		case <-r.ctx.Done():
			return
		}
		defer func() { <-r.sem }()

		if _, err := r.pipeline.Run(r.ctx, job); err != nil {
			r.logger.Error("ingestion job failed", "job", job.ID, "error", err)
			return
		}

		if r.dataDir != "" {
			if err := r.store.Persist(r.ctx, r.dataDir); err != nil {
				r.logger.Error("persisting vector store", "job", job.ID, "error", err)
			}
		}
	}()
}

// Shutdown cancels in-flight work and waits for goroutines to exit.
func (r *Runner) Shutdown() {
	r.cancel()
	r.wg.Wait()
}

// Wait blocks until all scheduled jobs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
