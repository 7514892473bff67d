package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyTranslation is returned when a model answers with no text
var ErrEmptyTranslation = errors.New("empty translation")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Translate returns the translation of req.Text
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// TranslateRequest contains the input for one translation
type TranslateRequest struct {
	// Text is the source text
	Text string

	// SourceLanguage and TargetLanguage are plain language names, e.g. "Japanese"
	SourceLanguage string
	TargetLanguage string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// TranslateResponse contains the translated text
type TranslateResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Gemini
	APIKey string

	// BaseURL for OpenAI-compatible endpoints
	BaseURL string

	// Proxy routes OpenAI requests through an HTTP or SOCKS5 proxy
	Proxy string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 2000,
	}
}

// call holds the per-request values after falling back to Config
type call struct {
	prompt    string
	model     string
	maxTokens int
	timeout   time.Duration
}

func (c Config) call(req TranslateRequest) call {
	out := call{
		prompt:    req.Prompt,
		model:     req.Model,
		maxTokens: req.MaxTokens,
		timeout:   time.Duration(c.Timeout) * time.Second,
	}
	if out.prompt == "" {
		out.prompt = BuildPrompt(req)
	}
	if out.model == "" {
		out.model = c.Model
	}
	if out.maxTokens == 0 {
		out.maxTokens = c.MaxTokens
	}
	if out.maxTokens == 0 {
		out.maxTokens = 2000
	}
	if out.timeout <= 0 {
		out.timeout = 30 * time.Second
	}
	return out
}

// cleanTranslation trims whitespace and one pair of quotes wrapped around
// the whole answer
func cleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}, {"「", "」"}} {
		if len(s) > len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			inner := s[len(q[0]) : len(s)-len(q[1])]
			if !strings.Contains(inner, q[0]) && !strings.Contains(inner, q[1]) {
				return strings.TrimSpace(inner)
			}
		}
	}
	return s
}

// systemInstruction frames every translation call
const systemInstruction = "You translate household accident risk assessments written for a research study. " +
	"Return only the translation, without quotes, notes or explanations."

// BuildPrompt constructs the default translation prompt
func BuildPrompt(req TranslateRequest) string {
	source := req.SourceLanguage
	if source == "" {
		source = "Japanese"
	}
	target := req.TargetLanguage
	if target == "" {
		target = "English"
	}

	return fmt.Sprintf(`Translate the following %s text into natural %s.

Rules:
1. Keep the meaning, the hedging and the level of detail of the original.
2. Keep risk categories in quotes as quoted English terms, e.g. 'Potential Major'.
3. Keep numbers, ages and units unchanged.
4. Do not add or drop sentences.

Text:
%s`, source, target, req.Text)
}
