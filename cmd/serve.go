package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Encore7/codebase-explainer-agent/internal/agent"
	"github.com/Encore7/codebase-explainer-agent/internal/chat"
	"github.com/Encore7/codebase-explainer-agent/internal/ingest"
	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
	"github.com/Encore7/codebase-explainer-agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the explainer HTTP server",
	Long: `Starts the HTTP server: POST /api/repos schedules background ingestion
of a repository, GET /api/repos/{id} reports its status, and /ws/{repo_id}
serves streaming question answering over WebSocket.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
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

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return err
	}

	jobStore := jobs.NewStore(database)
	pipeline := ingest.NewPipeline(jobStore, store, embedder, cfg.BatchSize, walkOptionsFromConfig(cfg), logger)
	runner := ingest.NewRunner(pipeline, store, vectorDir(cfg), logger)
	defer runner.Shutdown()

	summaryModel := cfg.SummaryModel
	if summaryModel == "" {
		summaryModel = cfg.Model
	}
	ag := agent.New(store, provider, summaryModel, cfg.Model, cfg.TopK, logger)

	srv := server.New(server.Config{Port: cfg.Server.Port, AllowAll: cfg.Server.AllowAll}, logger)
	jobs.RegisterRoutes(srv.APIGroup(), jobStore, runner)
	chatHandler := chat.NewHandler(ag, jobStore, chat.NewSessionStore(database), logger)
	chatHandler.RegisterRoutes(srv.Router())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
