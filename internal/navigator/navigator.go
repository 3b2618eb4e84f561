// Package navigator follows hypermedia links, hands each fetched document to
// a markup generator and writes the result into a View while keeping
// browser-style back/forward history.
package navigator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/starford/skulls/internal/hypermedia"
)

const maxBodyBytes = 10 << 20

var (
	// ErrNavigation wraps fetch failures: network errors, non-2xx statuses and malformed JSON.
	ErrNavigation = errors.New("navigation failed")
	// ErrGeneration wraps failures of the markup generator.
	ErrGeneration = errors.New("generation failed")
	// ErrNoHistory is returned by Back and Forward at either end of the history.
	ErrNoHistory = errors.New("no history entry")
)

// Fetcher performs HTTP requests. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Generator turns a hypermedia document into markup.
type Generator interface {
	Generate(ctx context.Context, doc hypermedia.Document) (string, error)
}

// FollowOptions tunes a single navigation.
type FollowOptions struct {
	// Method defaults to GET.
	Method string
	// Body is JSON-encoded for non-GET requests. Pass json.RawMessage to send pre-encoded JSON.
	Body any
	// SkipHistory suppresses the history push, as on back/forward.
	SkipHistory bool
}

// Navigator owns the navigation state. Views and history are injected.
type Navigator struct {
	base    *url.URL
	fetcher Fetcher
	gen     Generator
	view    View
	history History
	logger  *slog.Logger

	mu       sync.Mutex
	current  string
	document hypermedia.Document
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithFetcher sets the HTTP client used for hypermedia fetches.
func WithFetcher(f Fetcher) Option {
	return func(n *Navigator) { n.fetcher = f }
}

// WithHistory sets the history capability.
func WithHistory(h History) Option {
	return func(n *Navigator) { n.history = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) { n.logger = l }
}

// New creates a Navigator rooted at the hypermedia backend baseURL.
func New(baseURL string, gen Generator, view View, opts ...Option) (*Navigator, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("navigator: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("navigator: base url must be absolute: %q", baseURL)
	}
	if gen == nil || view == nil {
		return nil, errors.New("navigator: generator and view are required")
	}
	// Relative links resolve beneath the base path, as in the browser client.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
		if base.RawPath != "" {
			base.RawPath += "/"
		}
	}
	n := &Navigator{
		base:    base,
		fetcher: http.DefaultClient,
		gen:     gen,
		view:    view,
		history: NewStack(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Discover fetches the backend base URL and renders it. The root becomes the
// initial history entry only when the history is still empty.
func (n *Navigator) Discover(ctx context.Context) error {
	root := n.base.String()
	n.view.ShowLoading()

	doc, err := n.load(ctx, http.MethodGet, root, nil)
	if err == nil && doc == nil {
		err = errors.New("empty response body")
	}
	if err != nil {
		n.view.ShowError("API discovery failed: " + err.Error())
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	n.setCurrent(root, doc)
	if n.history.Len() == 0 {
		n.history.Replace(root)
	}
	return n.render(ctx, doc)
}

// Follow navigates to rawURL. The returned error has already been shown on
// the view; callers only need it for their own bookkeeping.
func (n *Navigator) Follow(ctx context.Context, rawURL string, opts FollowOptions) error {
	target, err := n.resolve(rawURL)
	if err != nil {
		n.view.ShowError("Failed to follow link: " + err.Error())
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}

	n.logger.Debug("navigator: follow", slog.String("method", method), slog.String("url", target))
	n.view.ShowLoading()

	doc, err := n.load(ctx, method, target, opts.Body)
	if err != nil {
		n.view.ShowError("Failed to follow link: " + err.Error())
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	if doc == nil {
		if method == http.MethodDelete {
			return n.Discover(ctx)
		}
		n.view.ShowError("Failed to follow link: empty response body")
		return fmt.Errorf("%w: empty response body", ErrNavigation)
	}

	n.setCurrent(target, doc)
	if method == http.MethodGet && !opts.SkipHistory {
		n.history.Push(target)
	}
	return n.render(ctx, doc)
}

// Restore re-issues the fetch for a URL reached through a back/forward
// gesture, without recording it again.
func (n *Navigator) Restore(ctx context.Context, rawURL string) error {
	return n.Follow(ctx, rawURL, FollowOptions{SkipHistory: true})
}

// Back moves one entry back in history and restores it.
func (n *Navigator) Back(ctx context.Context) error {
	u, ok := n.history.Back()
	if !ok {
		return ErrNoHistory
	}
	return n.Restore(ctx, u)
}

// Forward moves one entry forward in history and restores it.
func (n *Navigator) Forward(ctx context.Context) error {
	u, ok := n.history.Forward()
	if !ok {
		return ErrNoHistory
	}
	return n.Restore(ctx, u)
}

// Current returns the URL of the last successful navigation.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Document returns the last successfully fetched document.
func (n *Navigator) Document() hypermedia.Document {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.document
}

// History returns the navigator's history.
func (n *Navigator) History() History {
	return n.history
}

func (n *Navigator) setCurrent(u string, doc hypermedia.Document) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = u
	n.document = doc
}

func (n *Navigator) render(ctx context.Context, doc hypermedia.Document) error {
	markup, err := n.gen.Generate(ctx, doc)
	if err != nil {
		n.logger.Warn("navigator: generation failed", slog.String("error", err.Error()))
		n.view.HideContent()
		n.view.ShowError("UI generation failed: " + err.Error())
		return fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	n.view.Render(markup)
	return nil
}

func (n *Navigator) resolve(rawURL string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	return n.base.ResolveReference(ref).String(), nil
}

// load fetches target and parses the JSON body. A successful response with
// an empty body yields a nil document and no error.
func (n *Navigator) load(ctx context.Context, method, target string, body any) (hypermedia.Document, error) {
	var reader io.Reader
	if body != nil && method != http.MethodGet {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", hypermedia.Accept)
	if reader != nil {
		req.Header.Set("Content-Type", hypermedia.MediaTypeJSON)
	}

	resp, err := n.fetcher.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	// Streams such as text/event-stream never end; refuse them unread.
	if ct := resp.Header.Get("Content-Type"); !readableContentType(ct) {
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return hypermedia.Parse(data)
}

// readableContentType accepts JSON media types and the untyped or
// text/plain responses of servers that do not label their JSON.
func readableContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	switch {
	case mediaType == "application/json", mediaType == "text/plain":
		return true
	case strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"):
		return true
	}
	return false
}
