package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/skulls/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Generation.Namespace != DefaultNamespace {
		t.Errorf("namespace = %q", cfg.Generation.Namespace)
	}
}

func TestGenerationConfig_NamespaceMustBeUUID(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Generation.Namespace = "not-a-uuid"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("non-UUID namespace should fail")
	}
	if !strings.Contains(err.Error(), "must be a UUID") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGenerationConfig_UnknownProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Generation.Provider = "magic"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown provider should fail validation")
	}
}

func TestGenerationConfig_MissingKeyIsAllowed(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Generation.OpenRouter.APIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing API key must not block startup: %v", err)
	}
}

func TestGenerationConfig_ActiveProviderNeedsModel(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Generation.Provider = "gemini"
	cfg.Generation.Gemini.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("active provider without model should fail")
	}
	cfg.Generation.Provider = "openrouter"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("inactive provider should not be validated: %v", err)
	}
}

func TestBackendConfig_InvalidURL(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Backend.URL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid backend url should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                   "3100",
		"FRONTEND_API_NAMESPACE": "0b7a1e9c-3f52-4d3e-8a0e-7f6c5d4b3a21",
		"OPENROUTER_API_KEY":     "sk-or",
		"OPENROUTER_MODEL":       "openai/gpt-4o",
		"AI_PROVIDER":            "anthropic",
		"BACKEND_URL":            "http://backend:8080",
	}
	cfg := NewDefaultConfig()
	if err := cfg.ApplyEnv(mapLookup(env)); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.App.HTTP.Port != 3100 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.Generation.Namespace != env["FRONTEND_API_NAMESPACE"] {
		t.Errorf("namespace = %q", cfg.Generation.Namespace)
	}
	if cfg.Generation.OpenRouter.APIKey != "sk-or" || cfg.Generation.OpenRouter.Model != "openai/gpt-4o" {
		t.Errorf("openrouter = %+v", cfg.Generation.OpenRouter)
	}
	if cfg.Generation.Provider != "anthropic" || cfg.Backend.URL != "http://backend:8080" {
		t.Errorf("config = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("overridden config should be valid: %v", err)
	}
}

func TestLoadYAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("SKULLS_TEST_KEY", "sk-test")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 3300
generation:
  provider: gemini
  gemini:
    api_key: ${SKULLS_TEST_KEY}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 3300 || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Generation.Gemini.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.Generation.Gemini.APIKey)
	}
	if cfg.Generation.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("defaults should survive partial files, model = %q", cfg.Generation.Gemini.Model)
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if found {
		t.Error("found should be false")
	}
	if cfg.App.HTTP.Port != 3000 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
}

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.ApplyEnv(mapLookup(map[string]string{"PORT": "eighty"}))
	if err == nil || !strings.Contains(err.Error(), `invalid PORT "eighty"`) {
		t.Fatalf("err = %v", err)
	}
	if cfg.App.HTTP.Port != 3000 {
		t.Errorf("port = %d, want default kept", cfg.App.HTTP.Port)
	}

	if err := cfg.ApplyEnv(mapLookup(map[string]string{"PORT": ""})); err != nil {
		t.Errorf("empty PORT should be ignored: %v", err)
	}
}

func TestLoadOptional_EnvironmentRescuesFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
generation:
  namespace: not-a-uuid
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(path, cfg)
	if err != nil || !found {
		t.Fatalf("LoadOptional = %v, %v; decoding must not validate", found, err)
	}
	if err := pkgconfig.Validate(cfg); err == nil {
		t.Fatal("file value alone should be invalid")
	}

	ns := "0b7a1e9c-3f52-4d3e-8a0e-7f6c5d4b3a21"
	if err := cfg.ApplyEnv(mapLookup(map[string]string{"FRONTEND_API_NAMESPACE": ns})); err != nil {
		t.Fatal(err)
	}
	if err := pkgconfig.Validate(cfg); err != nil {
		t.Errorf("environment override should make the config valid: %v", err)
	}
	if err := pkgconfig.Load(path, NewDefaultConfig()); err == nil {
		t.Error("Load still validates the file on its own")
	}
}
