package llm

import (
	"context"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"deepseek", Config{Provider: "deepseek", Model: "deepseek-chat", APIKey: "test-key"}},
		{"openai with overrides", Config{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKey:      "test-key",
			BaseURL:     "https://api.openai.com/v1",
			MaxTokens:   4096,
			Temperature: 0.5,
		}},
		// Unknown providers fall through to a generic client.
		{"generic", Config{Provider: "local-proxy", Model: "test-model", APIKey: "test-key", BaseURL: "http://localhost:8080/v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(&tt.cfg)
			if err != nil {
				t.Fatalf("NewService: %v", err)
			}
			if svc == nil {
				t.Fatal("NewService returned nil service")
			}
		})
	}
}

func TestNewService_RequiresModel(t *testing.T) {
	if _, err := NewService(&Config{Provider: "deepseek", APIKey: "test-key"}); err == nil {
		t.Error("expected an error without a model")
	}
}

func TestNewService_Defaults(t *testing.T) {
	svc, err := NewService(&Config{
		Provider:    "deepseek",
		Model:       "deepseek-chat",
		APIKey:      "test-key",
		MaxTokens:   2048,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	s := svc.(*service)
	if s.maxTokens != 2048 {
		t.Errorf("maxTokens = %d, want 2048", s.maxTokens)
	}
	if s.temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", s.temperature)
	}
	if s.timeout != 120 {
		t.Errorf("timeout = %d, want default 120", s.timeout)
	}
}

func TestConvertMessages(t *testing.T) {
	converted := convertMessages([]Message{
		SystemPrompt("You classify recommendations"),
		UserMessage("Great tacos at La Norte"),
		{Role: "assistant", Content: "noted"},
		{Role: "bogus", Content: "falls back to user"},
	})

	wantRoles := []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleUser,
	}
	if len(converted) != len(wantRoles) {
		t.Fatalf("converted %d messages, want %d", len(converted), len(wantRoles))
	}
	for i, want := range wantRoles {
		if converted[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, converted[i].Role, want)
		}
	}
	if converted[1].Content != "Great tacos at La Norte" {
		t.Errorf("content = %q, not carried through", converted[1].Content)
	}
}

// Chat against an unreachable endpoint must surface an error instead
// of hanging. Stats may be nil when no API response was received.
func TestChat_ErrorOnUnreachableEndpoint(t *testing.T) {
	svc, err := NewService(&Config{
		Provider: "generic",
		Model:    "test-model",
		APIKey:   "test-key",
		BaseURL:  "http://127.0.0.1:1/v1",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, _, err := svc.Chat(ctx, []Message{UserMessage("test")}); err == nil {
		t.Error("expected an error from an unreachable endpoint")
	}
}
