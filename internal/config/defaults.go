package config

import "time"

// DefaultBatchSize is the number of changed files accumulated before an
// embedding batch is flushed to the vector store.
const DefaultBatchSize = 20

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// DefaultExcludes are glob patterns for changed files that are skipped
// during ingestion by default.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	"dist/**",
	"build/**",
	"*.min.js",
	"*.min.css",
	"*.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		Model:          "gpt-4o",
		SummaryModel:   "gpt-4o",
		EmbeddingModel: "text-embedding-3-small",
		DataDir:        ".explainer",
		CloneDir:       "",
		BatchSize:      DefaultBatchSize,
		TopK:           DefaultTopK,
		LLMRPM:         60,
		Include:        []string{"**"},
		Exclude:        DefaultExcludes,
		Retry: RetryConfig{
			MaxAttempts: 3,
			Delay:       2 * time.Second,
		},
		Ollama: OllamaConfig{
			Host:            "http://localhost:11434",
			EmbedDimensions: 768,
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}
