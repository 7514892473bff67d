package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/riskform/internal/util"
)

// OpenAIProvider translates with the Chat Completions API. BaseURL lets it
// talk to any OpenAI-compatible server.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	cc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cc.BaseURL = config.BaseURL
	}
	if config.Proxy != "" {
		hc, err := util.HTTPClient(config.Proxy)
		if err != nil {
			return nil, err
		}
		cc.HTTPClient = hc
	}

	return &OpenAIProvider{client: openai.NewClientWithConfig(cc), config: config}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

// IsAvailable lists models, which fails on a bad key or unreachable server
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	c := p.config.call(req)
	if c.model == "" {
		c.model = openai.GPT4oMini
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: c.prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("openai %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai %s: no choices returned", c.model)
	}

	choice := resp.Choices[0]
	text := cleanTranslation(choice.Message.Content)
	if text == "" {
		return nil, fmt.Errorf("openai %s: %w", c.model, ErrEmptyTranslation)
	}
	if choice.FinishReason == openai.FinishReasonLength {
		return nil, fmt.Errorf("openai %s: translation cut off at %d tokens", c.model, c.maxTokens)
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return &TranslateResponse{Text: text, Model: model, TokensUsed: resp.Usage.TotalTokens}, nil
}
