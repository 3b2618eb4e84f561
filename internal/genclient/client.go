// Package genclient posts hypermedia documents to the local generation endpoint.
package genclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/starford/skulls/internal/hypermedia"
)

// Request is the generation endpoint's request body.
type Request struct {
	HateoasResponse hypermedia.Document `json:"hateoasResponse"`
}

// Response is the generation endpoint's success body.
type Response struct {
	HTML string `json:"html"`
}

// Client calls POST /api/<namespace>/generate-ui.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a Client for the frontend server at baseURL. A nil httpClient
// uses http.DefaultClient.
func New(baseURL, namespace string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + EndpointPath(namespace),
		http:     httpClient,
	}
}

// EndpointPath returns the generation route for namespace.
func EndpointPath(namespace string) string {
	return "/api/" + namespace + "/generate-ui"
}

// Generate returns the markup produced for doc. Any non-2xx response is an
// error; no fallback markup is synthesized.
func (c *Client) Generate(ctx context.Context, doc hypermedia.Document) (string, error) {
	body, err := json.Marshal(Request{HateoasResponse: doc})
	if err != nil {
		return "", fmt.Errorf("genclient: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("genclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("genclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("genclient: HTTP %d: %s", resp.StatusCode, e.Error)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("genclient: decode response: %w", err)
	}
	return out.HTML, nil
}
