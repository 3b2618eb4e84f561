package generate

import (
	"fmt"
	"net/http"
)

// Provider names accepted by NewProvider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
)

// ProviderNames lists every supported provider.
var ProviderNames = []string{ProviderOpenRouter, ProviderAnthropic, ProviderGemini}

// Settings carries the credentials and model for one provider.
type Settings struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
}

// NewProvider builds the provider registered under name.
func NewProvider(name string, s Settings, prompt *Prompt, client *http.Client) (Provider, error) {
	switch name {
	case ProviderOpenRouter, "":
		return NewOpenRouter(s.APIKey, s.Model, s.BaseURL, prompt, client), nil
	case ProviderAnthropic:
		return NewAnthropic(s.APIKey, s.Model, s.MaxTokens, s.BaseURL, prompt), nil
	case ProviderGemini:
		return NewGemini(s.APIKey, s.Model, s.BaseURL, prompt), nil
	default:
		return nil, fmt.Errorf("generate: unknown provider %q", name)
	}
}
