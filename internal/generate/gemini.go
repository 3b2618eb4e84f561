package generate

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/starford/skulls/internal/apperr"
	"github.com/starford/skulls/internal/hypermedia"
)

// Gemini calls Google's Gemini API.
type Gemini struct {
	client  *genai.Client
	initErr error
	model   string
	prompt  *Prompt
}

// NewGemini creates a Gemini provider. Client construction errors are
// deferred to Complete so that a misconfigured provider does not stop the
// server from starting.
func NewGemini(apiKey, model, baseURL string, prompt *Prompt) *Gemini {
	g := &Gemini{model: model, prompt: prompt}
	if apiKey == "" {
		g.initErr = apperr.ErrMissingCredentials
		return g
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		g.initErr = fmt.Errorf("create client: %w", err)
		return g
	}
	g.client = client
	return g
}

// Name implements Provider.
func (g *Gemini) Name() string { return "Gemini" }

// Complete implements Provider.
func (g *Gemini) Complete(ctx context.Context, doc hypermedia.Document) (string, error) {
	if g.initErr != nil {
		return "", g.initErr
	}
	user, err := UserPrompt(doc)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(g.prompt.System(), genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("API error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: no text content", apperr.ErrProviderResponse)
	}
	return text, nil
}
