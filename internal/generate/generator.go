// Package generate turns hypermedia documents into HTML through an external
// language-model provider.
package generate

import (
	"context"
	"fmt"

	"github.com/starford/skulls/internal/hypermedia"
)

// Provider is one external AI API. Complete returns the raw model text,
// which may still be wrapped in a fenced code block.
type Provider interface {
	Name() string
	Complete(ctx context.Context, doc hypermedia.Document) (string, error)
}

// Generator holds the single active provider.
type Generator struct {
	provider Provider
}

// NewGenerator creates a Generator backed by provider.
func NewGenerator(provider Provider) *Generator {
	return &Generator{provider: provider}
}

// ProviderName returns the active provider's name.
func (g *Generator) ProviderName() string {
	return g.provider.Name()
}

// GenerateMarkup calls the provider once and strips code fences from the reply.
// Failures are returned as-is: there is no retry and no fallback markup.
func (g *Generator) GenerateMarkup(ctx context.Context, doc hypermedia.Document) (string, error) {
	raw, err := g.provider.Complete(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%s: %w", g.provider.Name(), err)
	}
	return StripCodeFences(raw), nil
}
