// Package config loads gapaudit configuration from YAML with environment
// overrides layered on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"gapaudit/internal/embedding"
	"gapaudit/internal/llm"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "gapaudit.yaml"

// Config holds all gapaudit configuration.
type Config struct {
	// LLM backend
	LLM LLMConfig `yaml:"llm"`

	// Embedding backend for policy retrieval
	Embedding embedding.Config `yaml:"embedding"`

	// Report pipeline settings
	Report ReportConfig `yaml:"report"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the model client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // ollama, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// ReportConfig configures the gap-report pipeline.
type ReportConfig struct {
	LogGlob          string `yaml:"log_glob"`
	OutputPath       string `yaml:"output_path"`
	MaxPolicyChoices int    `yaml:"max_policy_choices"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.1",
			Timeout:  "120s",
		},
		Embedding: embedding.DefaultConfig(),
		Report: ReportConfig{
			LogGlob:          "logs/*.csv",
			OutputPath:       "outputs/final_report.md",
			MaxPolicyChoices: 2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
		// Gemini also serves as the model gateway unless another key won.
		if c.LLM.APIKey == "" {
			c.LLM.Provider = "gemini"
			c.LLM.APIKey = key
		}
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if c.LLM.Provider == "ollama" || c.LLM.Provider == "" {
			c.LLM.BaseURL = host
		}
		if c.Embedding.Provider == "ollama" || c.Embedding.Provider == "" {
			c.Embedding.OllamaEndpoint = host
		}
	}
	if glob := os.Getenv("GAPAUDIT_LOG_GLOB"); glob != "" {
		c.Report.LogGlob = glob
	}
}

// LLMTimeout returns the model call timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return llm.DefaultTimeout
	}
	return d
}

// ProviderConfig resolves the LLM section to a client factory config.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider: llm.Provider(c.LLM.Provider),
		APIKey:   c.LLM.APIKey,
		Endpoint: c.LLM.BaseURL,
		Model:    c.LLM.Model,
		Timeout:  c.LLMTimeout(),
	}
}
