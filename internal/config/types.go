package config

import "time"

// ProviderType identifies an LLM/embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// RetryConfig parameterizes the embedding retry policy.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" koanf:"max_attempts"`
	Delay       time.Duration `yaml:"delay" koanf:"delay"`
}

// OllamaConfig holds settings for a local Ollama instance.
type OllamaConfig struct {
	// Host is the base URL of the Ollama API.
	Host string `yaml:"host" koanf:"host"`
	// EmbedDimensions is the vector size of the embedding model. It must
	// match the model; the vector store rejects mixed dimensions.
	EmbedDimensions int `yaml:"embed_dimensions" koanf:"embed_dimensions"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// Config is the top-level explainer configuration, corresponding to .explainer.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	Model          string       `yaml:"model" koanf:"model"`
	SummaryModel   string       `yaml:"summary_model" koanf:"summary_model"`
	EmbeddingModel string       `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir        string       `yaml:"data_dir" koanf:"data_dir"`
	CloneDir       string       `yaml:"clone_dir" koanf:"clone_dir"`
	BatchSize      int          `yaml:"batch_size" koanf:"batch_size"`
	TopK           int          `yaml:"top_k" koanf:"top_k"`
	LLMRPM         int          `yaml:"llm_rpm" koanf:"llm_rpm"`
	Include        []string     `yaml:"include" koanf:"include"`
	Exclude        []string     `yaml:"exclude" koanf:"exclude"`
	Retry          RetryConfig  `yaml:"retry" koanf:"retry"`
	Ollama         OllamaConfig `yaml:"ollama" koanf:"ollama"`
	Server         ServerConfig `yaml:"server" koanf:"server"`
}
