// Package web serves the browser client: the embedded static assets and the
// single-page entry document every non-API path falls back to.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed templates/index.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Settings are rendered into the entry page for the browser client.
type Settings struct {
	Title      string
	BackendURL string
	Namespace  string
}

// Site serves static assets and the entry page.
type Site struct {
	index  []byte
	static http.Handler
	assets fs.FS
}

// New renders the entry page once and prepares the asset handler.
func New(s Settings) (*Site, error) {
	if s.Title == "" {
		s.Title = "Skulls"
	}
	s.BackendURL = strings.TrimRight(s.BackendURL, "/")

	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("render index template: %w", err)
	}

	assets, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	return &Site{
		index:  buf.Bytes(),
		static: http.StripPrefix("/static/", http.FileServerFS(assets)),
		assets: assets,
	}, nil
}

// ServeHTTP serves an embedded asset when one matches the path and the
// entry page otherwise, so client-side routes survive a reload.
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if name, ok := strings.CutPrefix(r.URL.Path, "/static/"); ok && s.hasAsset(name) {
		s.static.ServeHTTP(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(s.index)
}

func (s *Site) hasAsset(name string) bool {
	if name == "" || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(s.assets, name)
	return err == nil && !info.IsDir()
}
