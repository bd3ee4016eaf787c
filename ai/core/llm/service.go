// Package llm wraps OpenAI-compatible chat providers behind a single
// interface. The summarizer and the content analyzer are its callers.
package llm

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// Message is one chat turn. Role is system, user or assistant.
type Message struct {
	Role    string
	Content string
}

// LLMCallStats reports token usage and timing for one call, for cost
// visibility in logs.
type LLMCallStats struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// CacheReadTokens counts prompt tokens served from the provider's
	// cache, where the provider reports that.
	CacheReadTokens int `json:"cache_read_tokens,omitempty"`

	TotalDurationMs int64 `json:"total_duration_ms"`
}

// Service is the chat LLM interface.
type Service interface {
	// Chat runs one synchronous completion and returns the content
	// with call stats.
	Chat(ctx context.Context, messages []Message) (string, *LLMCallStats, error)

	// Warmup sends a one-token ping so the first real request does not
	// pay for connection setup.
	Warmup(ctx context.Context)
}

// Config selects and tunes the provider.
type Config struct {
	Provider    string // zai, deepseek, openai, siliconflow, dashscope, openrouter, ollama
	Model       string // glm-4.7, deepseek-chat, gpt-5.2, ...
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds
}

type service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int
}

// NewService builds a client for the configured provider. Known
// providers get their base URL filled in; unknown ones fall through to
// a generic OpenAI-compatible client, so a new provider only needs a
// base URL to work.
func NewService(cfg *Config) (Service, error) {
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(cfg.Provider)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "deepseek":
		return "https://api.deepseek.com"
	case "siliconflow":
		return "https://api.siliconflow.cn/v1"
	case "zai":
		return "https://open.bigmodel.cn/api/paas/v4"
	case "dashscope":
		return "https://dashscope.aliyuncs.com/compatible-mode/v1"
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "ollama":
		return "http://localhost:11434"
	case "openai":
		// go-openai already points at api.openai.com.
		return ""
	default:
		slog.Info("using generic OpenAI-compatible provider", "provider", provider)
		return ""
	}
}

func (s *service) Chat(ctx context.Context, messages []Message) (string, *LLMCallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("llm chat request",
		"model", s.model,
		"messages_count", len(messages),
		"max_tokens", s.maxTokens)

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "llm chat")
	}
	if len(resp.Choices) == 0 {
		return "", nil, errors.New("llm returned no choices")
	}

	stats := &LLMCallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  time.Since(start).Milliseconds(),
	}
	if details := resp.Usage.PromptTokensDetails; details != nil && details.CachedTokens > 0 {
		stats.CacheReadTokens = details.CachedTokens
	}

	slog.Debug("llm chat response",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", stats.TotalDurationMs)

	return resp.Choices[0].Message.Content, stats, nil
}

func (s *service) Warmup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	_, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   1,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	})
	if err != nil {
		slog.Warn("llm warmup ping failed, first request may be slower",
			"provider", s.provider,
			"model", s.model,
			"error", err)
		return
	}

	slog.Info("llm connection warmed up",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", time.Since(start).Milliseconds())
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

// newHTTPClient tunes connection handling for long-lived provider
// traffic. Deadlines are per call; Chat and Warmup always run under a
// context timeout.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt builds a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
