package generate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/skulls/internal/apperr"
	"github.com/starford/skulls/internal/hypermedia"
)

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"html fence", "```html\n<div>x</div>\n```", "<div>x</div>"},
		{"bare fence", "```\n<p>y</p>\n```", "<p>y</p>"},
		{"no fences", "<div>x</div>", "<div>x</div>"},
		{"clean input is trimmed", "  <div>x</div>\n", "<div>x</div>"},
		{"only opening fence", "```html\n<div>x</div>", "<div>x</div>"},
		{"inner fences untouched", "```html\n<pre>```code```</pre>\n```", "<pre>```code```</pre>"},
		{"double fenced strips once", "```\n```html\n<a></a>\n```\n```", "```html\n<a></a>\n```"},
		{"trailing newline keeps closing fence", "```html\n<b></b>\n```\n", "<b></b>\n```"},
		{"opening fence without newline", "```<i></i>```", "<i></i>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFences(tc.in); got != tc.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripCodeFences_IdempotentOnCleanInput(t *testing.T) {
	clean := "<section><h1>Hi</h1></section>"
	once := StripCodeFences(clean)
	if once != clean || StripCodeFences(once) != once {
		t.Errorf("clean input changed: %q", once)
	}
}

type stubProvider struct {
	reply string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return "Stub" }

func (s *stubProvider) Complete(context.Context, hypermedia.Document) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestGenerator_StripsProviderReply(t *testing.T) {
	p := &stubProvider{reply: "```html\n<div>ok</div>\n```"}
	g := NewGenerator(p)
	got, err := g.GenerateMarkup(context.Background(), hypermedia.Document{})
	if err != nil {
		t.Fatalf("GenerateMarkup: %v", err)
	}
	if got != "<div>ok</div>" {
		t.Errorf("markup = %q", got)
	}
	if g.ProviderName() != "Stub" {
		t.Errorf("provider name = %q", g.ProviderName())
	}
}

func TestGenerator_NoRetryOnFailure(t *testing.T) {
	p := &stubProvider{err: errors.New("boom")}
	g := NewGenerator(p)
	_, err := g.GenerateMarkup(context.Background(), hypermedia.Document{})
	if err == nil || !strings.Contains(err.Error(), "Stub: boom") {
		t.Fatalf("err = %v", err)
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1", p.calls)
	}
}

func TestOpenRouter_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k1" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"<p>hi</p>"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenRouter("k1", "test/model", srv.URL+"/", NewPrompt(""), srv.Client())
	out, err := p.Complete(context.Background(), hypermedia.Document{"title": "x"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "<p>hi</p>" {
		t.Errorf("out = %q", out)
	}
	if got.Model != "test/model" || len(got.Messages) != 2 {
		t.Fatalf("request = %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != DefaultSystemPrompt {
		t.Errorf("system message = %+v", got.Messages[0])
	}
	if !strings.Contains(got.Messages[1].Content, `{"title":"x"}`) {
		t.Errorf("user message = %q", got.Messages[1].Content)
	}
}

func TestOpenRouter_Failures(t *testing.T) {
	status := http.StatusUnauthorized
	body := `{}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	p := NewOpenRouter("k", "m", srv.URL, nil, srv.Client())

	_, err := p.Complete(context.Background(), hypermedia.Document{})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("status error = %v", err)
	}

	status, body = http.StatusOK, `{"choices":[]}`
	_, err = p.Complete(context.Background(), hypermedia.Document{})
	if !errors.Is(err, apperr.ErrProviderResponse) {
		t.Errorf("empty choices error = %v", err)
	}

	body = `not json`
	_, err = p.Complete(context.Background(), hypermedia.Document{})
	if !errors.Is(err, apperr.ErrProviderResponse) {
		t.Errorf("bad json error = %v", err)
	}

	noKey := NewOpenRouter("", "m", srv.URL, nil, srv.Client())
	if _, err := noKey.Complete(context.Background(), hypermedia.Document{}); !errors.Is(err, apperr.ErrMissingCredentials) {
		t.Errorf("missing key error = %v", err)
	}
}

func TestAnthropic_Complete(t *testing.T) {
	var system string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			System []struct {
				Text string `json:"text"`
			} `json:"system"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.System) > 0 {
			system = req.System[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "m",
			"content": [{"type": "text", "text": "`+"```html\\n<h1>A</h1>\\n```"+`"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`)
	}))
	defer srv.Close()

	p := NewAnthropic("key", "m", 0, srv.URL, NewPrompt("custom prompt"))
	out, err := NewGenerator(p).GenerateMarkup(context.Background(), hypermedia.Document{})
	if err != nil {
		t.Fatalf("GenerateMarkup: %v", err)
	}
	if out != "<h1>A</h1>" {
		t.Errorf("out = %q", out)
	}
	if system != "custom prompt" {
		t.Errorf("system = %q", system)
	}
}

func TestGemini_Complete(t *testing.T) {
	var (
		path, apiKey, system, user string
		reply                      = "```html\n<p>G</p>\n```"
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("x-goog-api-key")
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			SystemInstruction struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.SystemInstruction.Parts) > 0 {
			system = req.SystemInstruction.Parts[0].Text
		}
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			user = req.Contents[0].Parts[0].Text
		}

		text, _ := json.Marshal(reply)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":`+string(text)+`}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	p := NewGemini("key", "m", srv.URL, NewPrompt("gemini prompt"))
	out, err := NewGenerator(p).GenerateMarkup(context.Background(), hypermedia.Document{"title": "Gemini"})
	if err != nil {
		t.Fatalf("GenerateMarkup: %v", err)
	}
	if out != "<p>G</p>" {
		t.Errorf("out = %q", out)
	}
	if !strings.HasSuffix(path, "/models/m:generateContent") {
		t.Errorf("path = %q", path)
	}
	if apiKey != "key" {
		t.Errorf("api key header = %q", apiKey)
	}
	if system != "gemini prompt" {
		t.Errorf("system = %q", system)
	}
	if !strings.Contains(user, `"title":"Gemini"`) {
		t.Errorf("user message should carry the document: %q", user)
	}

	reply = ""
	if _, err := p.Complete(context.Background(), hypermedia.Document{}); !errors.Is(err, apperr.ErrProviderResponse) {
		t.Errorf("empty reply: err = %v, want ErrProviderResponse", err)
	}
}

func TestMissingCredentials(t *testing.T) {
	for _, name := range ProviderNames {
		p, err := NewProvider(name, Settings{Model: "m"}, NewPrompt(""), nil)
		if err != nil {
			t.Fatalf("NewProvider(%s): %v", name, err)
		}
		if _, err := p.Complete(context.Background(), hypermedia.Document{}); !errors.Is(err, apperr.ErrMissingCredentials) {
			t.Errorf("%s: err = %v, want ErrMissingCredentials", name, err)
		}
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider("llama", Settings{}, nil, nil); err == nil {
		t.Fatal("unknown provider should fail")
	}
}

func TestPrompt_SetAndLoad(t *testing.T) {
	p := NewPrompt("")
	if p.System() != DefaultSystemPrompt {
		t.Error("empty prompt should use default")
	}
	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("  be terse \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.System() != "be terse" {
		t.Errorf("System() = %q", p.System())
	}
	if err := p.LoadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing file should fail")
	}
	var nilPrompt *Prompt
	if nilPrompt.System() != DefaultSystemPrompt {
		t.Error("nil prompt should use default")
	}
}

func TestWatchPromptFile_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := NewPrompt("v1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchPromptFile(ctx, p, path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for p.System() != "v2" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if p.System() != "v2" {
		t.Errorf("prompt not reloaded, got %q", p.System())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watcher returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
