package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/starford/skulls/internal/hypermedia"
)

const testNamespace = "f47b3c8e-1a2d-4e5f-9c8b-3d7e2f1a5c9e"

type stubGenerator struct {
	mu   sync.Mutex
	html string
	err  error
	docs []hypermedia.Document
}

func (s *stubGenerator) GenerateMarkup(_ context.Context, doc hypermedia.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return s.html, s.err
}

func (s *stubGenerator) ProviderName() string { return "Stub" }

func testRouter(t *testing.T, gen MarkupGenerator) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	site := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>entry</html>"))
	})
	Mount(r, NewRouter(gen, testNamespace), site)
	return r
}

func postGenerate(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/"+testNamespace+"/generate-ui", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGenerateUI_Success(t *testing.T) {
	gen := &stubGenerator{html: "<div>x</div>"}
	router := testRouter(t, gen)

	w := postGenerate(t, router, `{"hateoasResponse":{"_links":{"self":{"href":"/"}}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.HTML != "<div>x</div>" {
		t.Errorf("html = %q", resp.HTML)
	}

	want := []hypermedia.Document{{"_links": map[string]any{"self": map[string]any{"href": "/"}}}}
	if diff := cmp.Diff(want, gen.docs); diff != "" {
		t.Errorf("documents passed to generator (-want +got):\n%s", diff)
	}
}

func TestGenerateUI_BadRequests(t *testing.T) {
	gen := &stubGenerator{html: "<p/>"}
	router := testRouter(t, gen)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{`, "invalid JSON body"},
		{"missing", `{}`, "hateoasResponse is required"},
		{"null", `{"hateoasResponse":null}`, "hateoasResponse is required"},
		{"array", `{"hateoasResponse":[1,2]}`, "hateoasResponse must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postGenerate(t, router, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["error"] != tt.want {
				t.Errorf("error = %q, want %q", body["error"], tt.want)
			}
		})
	}
	if len(gen.docs) != 0 {
		t.Errorf("generator called %d times for invalid input", len(gen.docs))
	}
}

func TestGenerateUI_GeneratorFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("API error: 401 Unauthorized")}
	router := testRouter(t, gen)

	w := postGenerate(t, router, `{"hateoasResponse":{"title":"x"}}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"error": "Failed to generate UI"}, body); diff != "" {
		t.Errorf("body (-want +got):\n%s", diff)
	}
}

func TestGenerateUI_WrongNamespace(t *testing.T) {
	router := testRouter(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/other/generate-ui", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	h := NewHandler(&stubGenerator{})
	h.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.FixedZone("X", 3600)) }

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := HealthResponse{Status: "ok", Timestamp: "2025-03-04T04:06:07.008Z"}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("health (-want +got):\n%s", diff)
	}
}

func TestHealth_ThroughRouter(t *testing.T) {
	router := testRouter(t, &stubGenerator{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC 3339: %v", resp.Timestamp, err)
	}
}

func TestUnknownAPIPath(t *testing.T) {
	router := testRouter(t, &stubGenerator{})

	for _, path := range []string{"/api/nope", "/api/", "/api/health/extra"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", path, w.Code)
			continue
		}
		var body map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["error"] != "API endpoint not found" {
			t.Errorf("%s: error = %q", path, body["error"])
		}
	}
}

func TestSiteFallback(t *testing.T) {
	router := testRouter(t, &stubGenerator{})

	for _, path := range []string{"/", "/change-requests/1", "/some/deep/route"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || w.Body.String() != "<html>entry</html>" {
			t.Errorf("%s: status = %d body = %q", path, w.Code, w.Body.String())
		}
	}
}
