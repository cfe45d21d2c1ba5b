// Package embedding provides vector embedding generation for policy retrieval.
// Supports multiple backends: Ollama (local), Google GenAI (cloud), and a
// deterministic hash engine for offline use.
package embedding

import (
	"context"
	"fmt"
	"time"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates embeddings for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings
	Dimensions() int

	// Name returns the engine name
	Name() string
}

// Config holds embedding engine configuration.
type Config struct {
	// Provider: "ollama", "genai" or "hash"
	Provider string `yaml:"provider"`

	// Dimensions declares the vector width the chosen model emits. Zero
	// keeps the provider default. Must agree with the model: the vector
	// index sizes its tables from this value.
	Dimensions int `yaml:"dimensions"`

	// Timeout bounds one embedding call, e.g. "30s".
	Timeout string `yaml:"timeout"`

	// Ollama Configuration
	OllamaEndpoint string `yaml:"ollama_endpoint"` // Default: "http://localhost:11434"
	OllamaModel    string `yaml:"ollama_model"`    // Default: "embeddinggemma"

	// GenAI Configuration
	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"` // Default: "gemini-embedding-001"

	// TaskType for GenAI: "SEMANTIC_SIMILARITY", "RETRIEVAL_QUERY", "RETRIEVAL_DOCUMENT"
	TaskType string `yaml:"task_type"`
}

const defaultHTTPTimeout = 30 * time.Second

// HTTPTimeout returns the per-call timeout; unset or unparsable values fall
// back to 30s.
func (c Config) HTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return defaultHTTPTimeout
	}
	return d
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:       "ollama",
		Timeout:        "30s",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "embeddinggemma",
		GenAIModel:     "gemini-embedding-001",
		TaskType:       "RETRIEVAL_DOCUMENT",
	}
}

// NewEngine creates an embedding engine based on configuration.
func NewEngine(cfg Config) (Engine, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaEngine(cfg)
	case "genai":
		return NewGenAIEngine(cfg)
	case "hash":
		return NewHashEngine(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
