package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Encore7/codebase-explainer-agent/internal/config"
	"github.com/Encore7/codebase-explainer-agent/internal/db"
	"github.com/Encore7/codebase-explainer-agent/internal/embeddings"
	"github.com/Encore7/codebase-explainer-agent/internal/gitwalk"
	"github.com/Encore7/codebase-explainer-agent/internal/llm"
	"github.com/Encore7/codebase-explainer-agent/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `explainer init` to create a config file", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// clean for MCP protocol traffic and command output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.Ollama.Host, cfg.EmbeddingModel, cfg.Ollama.EmbedDimensions), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// createRetryEmbedderFromConfig wraps the configured embedder with the
// configured retry policy.
func createRetryEmbedderFromConfig(cfg *config.Config, logger *slog.Logger) (*embeddings.RetryEmbedder, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	policy := embeddings.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Delay:       cfg.Retry.Delay,
	}
	return embeddings.NewRetryEmbedder(embedder, policy, logger), nil
}

// createLLMProviderFromConfig creates the LLM provider, rate limited when
// configured.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.LLMRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.LLMRPM)
	}
	return provider, nil
}

// openStore creates the vector store and loads a prior snapshot if one
// exists under the data directory.
func openStore(cfg *config.Config, embedder embeddings.Embedder, logger *slog.Logger) *vectordb.ChromemStore {
	store := vectordb.NewChromemStore(embedder)

	dir := vectorDir(cfg)
	if _, err := os.Stat(dir); err == nil {
		if err := store.Load(context.Background(), dir); err != nil {
			logger.Warn("could not load vector store snapshot", "dir", dir, "error", err)
		}
	}
	return store
}

// openDatabase opens the SQLite database under the data directory.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return db.Open(filepath.Join(cfg.DataDir, "explainer.db"))
}

// vectorDir is where vector store snapshots live.
func vectorDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "vectordb")
}

// walkOptionsFromConfig builds the history walk options.
func walkOptionsFromConfig(cfg *config.Config) gitwalk.Options {
	return gitwalk.Options{
		CloneDir: cfg.CloneDir,
		Include:  cfg.Include,
		Exclude:  cfg.Exclude,
	}
}
