package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/starford/skulls/internal/apperr"
	"github.com/starford/skulls/internal/hypermedia"
)

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	apiKey    string
	model     string
	maxTokens int64
	prompt    *Prompt
}

// NewAnthropic creates an Anthropic provider. baseURL is optional.
func NewAnthropic(apiKey, model string, maxTokens int64, baseURL string, prompt *Prompt) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		prompt:    prompt,
	}
}

// Name implements Provider.
func (a *Anthropic) Name() string { return "Anthropic" }

// Complete implements Provider.
func (a *Anthropic) Complete(ctx context.Context, doc hypermedia.Document) (string, error) {
	if a.apiKey == "" {
		return "", apperr.ErrMissingCredentials
	}
	user, err := UserPrompt(doc)
	if err != nil {
		return "", err
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: a.prompt.System()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("API error: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: no text content", apperr.ErrProviderResponse)
	}
	return text.String(), nil
}
