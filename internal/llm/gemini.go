package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// defaultGeminiModel is used when no model is configured
const defaultGeminiModel = "gemini-2.5-flash"

// generateFunc sends one prompt to the named model
type generateFunc func(ctx context.Context, model string, maxTokens int, prompt string) (*genai.GenerateContentResponse, error)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client   *genai.Client
	config   Config
	generate generateFunc
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	p := &GeminiProvider{client: client, config: config}
	p.generate = func(ctx context.Context, model string, maxTokens int, prompt string) (*genai.GenerateContentResponse, error) {
		return p.model(model, maxTokens).GenerateContent(ctx, genai.Text(prompt))
	}
	return p, nil
}

// Close closes the Gemini client
func (p *GeminiProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable fetches model metadata to check the key and model name
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.model(p.config.Model, 0).Info(ctx)
	return err == nil
}

// Translate makes a single GenerateContent call
func (p *GeminiProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	c := p.config.call(req)
	if c.model == "" {
		c.model = defaultGeminiModel
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := p.generate(ctx, c.model, c.maxTokens, c.prompt)
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", c.model, err)
	}
	return geminiResponse(resp, c.model)
}

// geminiResponse joins the text parts of the first candidate
func geminiResponse(resp *genai.GenerateContentResponse, model string) (*TranslateResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini %s: no candidates returned", model)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	text := cleanTranslation(b.String())
	if text == "" {
		return nil, fmt.Errorf("gemini %s: %w", model, ErrEmptyTranslation)
	}

	out := &TranslateResponse{Text: text, Model: model}
	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

func (p *GeminiProvider) model(name string, maxTokens int) *genai.GenerativeModel {
	if name == "" {
		name = defaultGeminiModel
	}

	gm := p.client.GenerativeModel(name)
	gm.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	gm.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.2),
	}
	if maxTokens > 0 {
		gm.GenerationConfig.MaxOutputTokens = genai.Ptr(int32(maxTokens))
	}
	return gm
}
