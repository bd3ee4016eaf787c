package ai

import (
	"errors"

	"github.com/vouchapp/vouch/internal/profile"
)

// Config represents AI configuration. Embedding and LLM are enabled
// independently: semantic search needs only embeddings, while result
// summaries and content analysis also need a chat LLM.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig

	EmbeddingEnabled bool
	LLMEnabled       bool
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// LLMConfig represents LLM configuration. All supported providers speak
// the OpenAI-compatible chat protocol, so one config shape covers them.
type LLMConfig struct {
	Provider    string // zai, deepseek, openai, siliconflow, dashscope, openrouter, ollama
	Model       string // glm-4.7, deepseek-chat, gpt-5.2, ...
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds
}

// NewConfigFromProfile creates AI config from profile. Provider defaults
// (base URL, model) are already resolved by the profile layer.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		EmbeddingEnabled: p.IsEmbeddingEnabled(),
		LLMEnabled:       p.IsAIEnabled(),
	}

	if cfg.EmbeddingEnabled {
		cfg.Embedding = EmbeddingConfig{
			Provider:   p.EmbeddingProvider,
			Model:      p.EmbeddingModel,
			APIKey:     p.EmbeddingAPIKey,
			BaseURL:    p.EmbeddingBaseURL,
			Dimensions: p.EmbeddingDimensions,
		}
	}

	if cfg.LLMEnabled {
		cfg.LLM = LLMConfig{
			Provider:    p.LLMProvider,
			Model:       p.LLMModel,
			APIKey:      p.LLMAPIKey,
			BaseURL:     p.LLMBaseURL,
			MaxTokens:   2048,
			Temperature: 0.7,
			Timeout:     p.LLMTimeout,
		}
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.EmbeddingEnabled {
		if c.Embedding.Provider == "" {
			return errors.New("embedding provider is required")
		}
		if c.Embedding.Provider != "ollama" && c.Embedding.APIKey == "" {
			return errors.New("embedding API key is required")
		}
		if c.Embedding.Model == "" {
			return errors.New("embedding model is required")
		}
	}

	if c.LLMEnabled {
		if c.LLM.Provider == "" {
			return errors.New("LLM provider is required")
		}
		if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
			return errors.New("LLM API key is required")
		}
	}

	return nil
}
