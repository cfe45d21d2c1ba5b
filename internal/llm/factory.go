package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// ProviderConfig holds the resolved provider and its settings.
type ProviderConfig struct {
	Provider Provider
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// DetectProvider resolves the provider from the environment.
// Priority: OPENAI_API_KEY > GEMINI_API_KEY > local Ollama (no key required).
// OLLAMA_HOST overrides the Ollama endpoint.
func DetectProvider() ProviderConfig {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return ProviderConfig{
			Provider: ProviderOpenAI,
			APIKey:   key,
			Endpoint: os.Getenv("OPENAI_BASE_URL"),
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return ProviderConfig{
			Provider: ProviderGemini,
			APIKey:   key,
		}
	}
	return ProviderConfig{
		Provider: ProviderOllama,
		Endpoint: os.Getenv("OLLAMA_HOST"),
	}
}

// NewClient builds a Client from a resolved provider config.
func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllamaClient(OllamaConfig{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		}), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return NewGeminiClient(GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// NewClientFromEnv creates a Client using environment-detected settings.
// model and timeout override the detected defaults when non-zero.
func NewClientFromEnv(model string, timeout time.Duration) (Client, error) {
	cfg := DetectProvider()
	if model != "" {
		cfg.Model = model
	}
	cfg.Timeout = timeout
	return NewClient(cfg)
}
