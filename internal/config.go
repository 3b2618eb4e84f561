package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/starford/skulls/internal/generate"
)

// DefaultNamespace keeps the generation routes clear of the hypermedia backend's paths.
const DefaultNamespace = "f47b3c8e-1a2d-4e5f-9c8b-3d7e2f1a5c9e"

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Generation GenerationConfig  `yaml:"generation"`
	Frontend   FrontendConfig    `yaml:"frontend"`
	Backend    BackendConfig     `yaml:"backend"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Generation.Validate(); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := c.Frontend.Validate(); err != nil {
		return fmt.Errorf("frontend: %w", err)
	}
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	return c.SQLite.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// GenerationConfig selects the AI provider and the generation route namespace.
type GenerationConfig struct {
	Namespace  string         `yaml:"namespace"`
	Provider   string         `yaml:"provider"`
	PromptFile string         `yaml:"prompt_file"`
	OpenRouter ProviderConfig `yaml:"openrouter"`
	Anthropic  ProviderConfig `yaml:"anthropic"`
	Gemini     ProviderConfig `yaml:"gemini"`
}

// Validate validates the generation configuration. API keys are not
// required here: a provider without credentials fails per request.
func (c *GenerationConfig) Validate() error {
	providers := make([]any, len(generate.ProviderNames))
	for i, p := range generate.ProviderNames {
		providers[i] = p
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Namespace, validation.Required, validation.By(isUUID)),
		validation.Field(&c.Provider, validation.Required, validation.In(providers...)),
	); err != nil {
		return err
	}
	active := c.Active()
	return active.Validate()
}

// Active returns the settings of the selected provider.
func (c *GenerationConfig) Active() ProviderConfig {
	switch c.Provider {
	case generate.ProviderAnthropic:
		return c.Anthropic
	case generate.ProviderGemini:
		return c.Gemini
	default:
		return c.OpenRouter
	}
}

func isUUID(v any) error {
	s, _ := v.(string)
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("must be a UUID")
	}
	return nil
}

// ProviderConfig holds one provider's credentials and model.
type ProviderConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// Validate validates the provider configuration.
func (c *ProviderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.BaseURL, is.RequestURL),
		validation.Field(&c.MaxTokens, validation.Min(int64(0))),
	)
}

// Settings converts the configuration for the generate package.
func (c ProviderConfig) Settings() generate.Settings {
	return generate.Settings{
		APIKey:    c.APIKey,
		Model:     c.Model,
		BaseURL:   c.BaseURL,
		MaxTokens: c.MaxTokens,
	}
}

// FrontendConfig tells headless clients where the generation endpoint lives.
type FrontendConfig struct {
	URL string `yaml:"url"`
}

// Validate validates the frontend configuration.
func (c *FrontendConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, is.RequestURL),
	)
}

// BackendConfig describes the hypermedia backend: URL is where clients
// reach it, HTTP is where the bundled demo backend listens.
type BackendConfig struct {
	URL  string     `yaml:"url"`
	HTTP HTTPConfig `yaml:"http"`
}

// Validate validates the backend configuration.
func (c *BackendConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, is.RequestURL),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// SQLiteConfig holds SQLite database configuration for the demo backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ApplyEnv overrides configuration from the environment variables listed in
// .env.example. lookup is usually os.LookupEnv. A PORT that is not a number
// is an error.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: must be a number", v)
		}
		c.App.HTTP.Port = port
	}
	set("FRONTEND_API_NAMESPACE", &c.Generation.Namespace)
	set("AI_PROVIDER", &c.Generation.Provider)
	set("OPENROUTER_API_KEY", &c.Generation.OpenRouter.APIKey)
	set("OPENROUTER_MODEL", &c.Generation.OpenRouter.Model)
	set("ANTHROPIC_API_KEY", &c.Generation.Anthropic.APIKey)
	set("ANTHROPIC_MODEL", &c.Generation.Anthropic.Model)
	set("GEMINI_API_KEY", &c.Generation.Gemini.APIKey)
	set("GEMINI_MODEL", &c.Generation.Gemini.Model)
	set("BACKEND_URL", &c.Backend.URL)
	set("FRONTEND_URL", &c.Frontend.URL)
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 3000,
			},
		},
		Generation: GenerationConfig{
			Namespace: DefaultNamespace,
			Provider:  generate.ProviderOpenRouter,
			OpenRouter: ProviderConfig{
				Model:   "anthropic/claude-sonnet-4",
				BaseURL: generate.DefaultOpenRouterBaseURL,
			},
			Anthropic: ProviderConfig{
				Model:     "claude-sonnet-4-20250514",
				MaxTokens: 8192,
			},
			Gemini: ProviderConfig{
				Model: "gemini-2.5-flash",
			},
		},
		Frontend: FrontendConfig{
			URL: "http://localhost:3000",
		},
		Backend: BackendConfig{
			URL: "http://localhost:8080",
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./skulls.db",
		},
	}
}
