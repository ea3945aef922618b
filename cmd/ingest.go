package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Encore7/codebase-explainer-agent/internal/ingest"
	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
	"github.com/Encore7/codebase-explainer-agent/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <repository-url-or-path>",
	Short: "Ingest a repository's commit history into the vector index",
	Long: `Walks the repository's full commit history, embeds every changed file's
diff together with its commit message, and stores the vectors for later
question answering. Re-ingesting the same repository is idempotent.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	start := time.Now()
	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	embedder, err := createRetryEmbedderFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	store := openStore(cfg, embedder, logger)

	jobStore := jobs.NewStore(database)
	job, err := jobStore.Create(ctx, args[0])
	if err != nil {
		return err
	}
	switch job.Status {
	case jobs.StatusDone:
		fmt.Printf("Repository %s already ingested (%d documents). Id: %s\n",
			job.SourceURL, store.Count(job.ID), job.ID)
		return nil
	case jobs.StatusInProgress:
		return fmt.Errorf("ingestion of %s is already in progress (id %s)", job.SourceURL, job.ID)
	case jobs.StatusFailed:
		fmt.Printf("Previous ingestion failed (%s); retrying. Id: %s\n", job.Error, job.ID)
		if err := jobStore.Retry(ctx, job.ID); err != nil {
			return err
		}
	}

	pipeline := ingest.NewPipeline(jobStore, store, embedder, cfg.BatchSize, walkOptionsFromConfig(cfg), logger)
	pipeline.Reporter = progress.NewReporter()

	res, err := pipeline.Run(ctx, job)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if err := store.Persist(context.Background(), vectorDir(cfg)); err != nil {
		return fmt.Errorf("persisting vector store: %w", err)
	}

	fmt.Printf("Ingested %s in %s\n", job.SourceURL, time.Since(start).Round(time.Second))
	fmt.Printf("  Id:      %s\n", job.ID)
	fmt.Printf("  Indexed: %d\n", res.Indexed)
	if res.Skipped > 0 {
		fmt.Printf("  Skipped: %d (embedding failures)\n", res.Skipped)
	}
	if res.Dropped > 0 {
		fmt.Printf("  Dropped: %d (storage failures)\n", res.Dropped)
	}
	return nil
}
