// Package api implements the frontend server's JSON API using chi.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/skulls/internal/httpjson"
	"github.com/starford/skulls/internal/hypermedia"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// MarkupGenerator is the generation service adapter as seen by the handlers.
type MarkupGenerator interface {
	GenerateMarkup(ctx context.Context, doc hypermedia.Document) (string, error)
	ProviderName() string
}

// Handler holds API route handlers.
type Handler struct {
	gen MarkupGenerator
	now func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(gen MarkupGenerator) *Handler {
	return &Handler{gen: gen, now: time.Now}
}

// GenerateUI handles POST /api/{namespace}/generate-ui.
func (h *Handler) GenerateUI(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	raw := bytes.TrimSpace(req.HateoasResponse)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		httpjson.Error(w, http.StatusBadRequest, "hateoasResponse is required")
		return
	}
	doc, err := hypermedia.Parse(raw)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "hateoasResponse must be a JSON object")
		return
	}

	html, err := h.gen.GenerateMarkup(r.Context(), doc)
	if err != nil {
		slog.Error("generation failed",
			slog.String("provider", h.gen.ProviderName()),
			slog.String("error", err.Error()))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to generate UI")
		return
	}
	httpjson.Write(w, http.StatusOK, GenerateResponse{HTML: html})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	httpjson.Write(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(isoMillis),
	})
}

// NotFound answers unmatched API paths.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	httpjson.Error(w, http.StatusNotFound, "API endpoint not found")
}
