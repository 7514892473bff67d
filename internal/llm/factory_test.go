package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/riskform/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		want    string
		wantErr bool
	}{
		{"disabled", Config{}, "", false},
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{"openai uppercase", Config{Provider: "OpenAI", APIKey: "k"}, "openai", false},
		{"openai no key", Config{Provider: "openai"}, "", true},
		{"gemini no key", Config{Provider: "gemini"}, "", true},
		{"unknown", Config{Provider: "anthropic", APIKey: "k"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want == "" {
				if p != nil {
					t.Errorf("expected nil provider, got %s", p.Name())
				}
				return
			}
			if p == nil || p.Name() != tt.want {
				t.Errorf("expected provider %s, got %v", tt.want, p)
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg := ConfigFromModel(model.LLMConfig{Provider: "openai", Model: "gpt-4o"})
	if cfg.APIKey != "env-key" {
		t.Errorf("expected env-key, got %q", cfg.APIKey)
	}
	if cfg.Timeout != 30 {
		t.Errorf("expected default timeout 30, got %d", cfg.Timeout)
	}

	cfg = ConfigFromModel(model.LLMConfig{Provider: "openai", APIKey: "explicit", Timeout: 5})
	if cfg.APIKey != "explicit" {
		t.Errorf("expected explicit key to win, got %q", cfg.APIKey)
	}
	if cfg.Timeout != 5 {
		t.Errorf("expected timeout 5, got %d", cfg.Timeout)
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	if got := APIKeyFromEnv("gemini"); got != "google-key" {
		t.Errorf("expected google-key, got %q", got)
	}
	if got := APIKeyFromEnv("unknown"); got != "" {
		t.Errorf("expected empty key, got %q", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(TranslateRequest{Text: "ハサミ"})

	if !strings.Contains(prompt, "Japanese") || !strings.Contains(prompt, "English") {
		t.Errorf("expected default languages in prompt, got %q", prompt)
	}
	if !strings.HasSuffix(prompt, "ハサミ") {
		t.Errorf("expected text at the end of the prompt, got %q", prompt)
	}
}
