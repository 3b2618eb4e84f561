package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates the /api sub-router: the namespaced generation
// endpoint, the health check, and a JSON 404 for every other API path.
func NewRouter(gen MarkupGenerator, namespace string) chi.Router {
	h := NewHandler(gen)

	r := chi.NewRouter()

	r.Get("/health", h.Health)
	r.Post("/"+namespace+"/generate-ui", h.GenerateUI)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	return r
}

// Mount wires the API router under /api and hands every other path to site.
func Mount(r chi.Router, apiRouter http.Handler, site http.Handler) {
	r.Mount("/api", apiRouter)
	r.Handle("/*", site)
}
