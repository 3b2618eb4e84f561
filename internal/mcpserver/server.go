// Package mcpserver exposes a headless navigator as MCP (Model Context
// Protocol) tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/skulls/internal/hypermedia"
	"github.com/starford/skulls/internal/navigator"
)

const (
	guideURI           = "skulls://navigation-guide"
	currentPageURI     = "skulls://current-page"
	currentDocumentURI = "skulls://current-document"
)

// Server wraps the MCP server with navigation tools.
type Server struct {
	mcp  *server.MCPServer
	nav  *navigator.Navigator
	page *navigator.Page
}

// New creates an MCP server driving nav, which must render into page.
func New(nav *navigator.Navigator, page *navigator.Page, version string) *Server {
	s := &Server{nav: nav, page: page}

	s.mcp = server.NewMCPServer(
		"Skulls",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("discover",
		mcp.WithDescription("Fetch the API root and render it. History is only seeded when empty."),
	), s.discover)

	s.mcp.AddTool(mcp.NewTool("follow_link",
		mcp.WithDescription("Follow a hypermedia link from the current page, by relation or URL. "+
			"Returns the rendered page as plain text. Read the navigation guide via "+
			"the skulls://navigation-guide resource first."),
		mcp.WithString("rel", mcp.Description("Link relation on the current page (e.g. change-requests)")),
		mcp.WithString("url", mcp.Description("Absolute or root-relative URL; used when rel is empty")),
		mcp.WithString("method", mcp.Description("HTTP method; defaults to the link's method or GET")),
		mcp.WithString("body", mcp.Description("JSON object sent as the request body for POST and PUT")),
	), s.followLink)

	s.mcp.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Go back one entry in the navigation history."),
	), s.goBack)

	s.mcp.AddTool(mcp.NewTool("go_forward",
		mcp.WithDescription("Go forward one entry in the navigation history."),
	), s.goForward)

	s.mcp.AddTool(mcp.NewTool("current_page",
		mcp.WithDescription("Show the current URL and the rendered page as plain text."),
	), s.currentPage)

	s.mcp.AddTool(mcp.NewTool("list_links",
		mcp.WithDescription("List the links and HAL-FORMS templates of the current page as JSON."),
	), s.listLinks)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Navigation Guide",
			mcp.WithResourceDescription("How to browse the hypermedia API with these tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuide,
	)
	s.mcp.AddResource(
		mcp.NewResource(currentPageURI, "Current Page",
			mcp.WithResourceDescription("The current URL and the rendered page as plain text."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readCurrentPage,
	)
	s.mcp.AddResource(
		mcp.NewResource(currentDocumentURI, "Current Page Document",
			mcp.WithResourceDescription("The raw hypermedia document of the current page."),
			mcp.WithMIMEType(hypermedia.MediaTypeHALForms),
		),
		s.readCurrentDocument,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// pageResult reports the outcome of a navigation. Navigator errors have
// already been written to the page, so the page's message is returned.
func (s *Server) pageResult(err error) (*mcp.CallToolResult, error) {
	if err != nil {
		msg := s.page.State().Error
		if msg == "" {
			msg = err.Error()
		}
		return mcp.NewToolResultError(msg), nil
	}
	return mcp.NewToolResultText(s.pageText()), nil
}

func (s *Server) pageText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n\n", s.nav.Current())
	b.WriteString(s.page.Text())
	return b.String()
}

func (s *Server) discover(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.pageResult(s.nav.Discover(ctx))
}

func (s *Server) followLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rel := req.GetString("rel", "")
	target := req.GetString("url", "")
	method := req.GetString("method", "")

	if rel != "" {
		link, ok := s.nav.Document().Links()[rel]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no link %q on the current page", rel)), nil
		}
		target = link.Href
		if method == "" {
			method = link.Method
		}
	}
	if target == "" {
		return mcp.NewToolResultError("rel or url is required"), nil
	}

	opts := navigator.FollowOptions{Method: method}
	if raw := strings.TrimSpace(req.GetString("body", "")); raw != "" {
		if !json.Valid([]byte(raw)) {
			return mcp.NewToolResultError("body must be valid JSON"), nil
		}
		opts.Body = json.RawMessage(raw)
	}
	return s.pageResult(s.nav.Follow(ctx, target, opts))
}

func (s *Server) goBack(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.nav.Back(ctx); errors.Is(err, navigator.ErrNoHistory) {
		return mcp.NewToolResultError("already at the oldest history entry"), nil
	} else if err != nil {
		return s.pageResult(err)
	}
	return s.pageResult(nil)
}

func (s *Server) goForward(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.nav.Forward(ctx); errors.Is(err, navigator.ErrNoHistory) {
		return mcp.NewToolResultError("already at the newest history entry"), nil
	} else if err != nil {
		return s.pageResult(err)
	}
	return s.pageResult(nil)
}

func (s *Server) currentPage(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.nav.Current() == "" {
		return mcp.NewToolResultError("nothing loaded yet; call discover"), nil
	}
	return mcp.NewToolResultText(s.pageText()), nil
}

type linkListing struct {
	URL       string                         `json:"url"`
	Links     []hypermedia.Link              `json:"links"`
	Templates map[string]hypermedia.Template `json:"templates,omitempty"`
}

func (s *Server) listLinks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.nav.Document()
	if doc == nil {
		return mcp.NewToolResultError("nothing loaded yet; call discover"), nil
	}
	out, _ := json.MarshalIndent(linkListing{
		URL:       s.nav.Current(),
		Links:     doc.SortedLinks(),
		Templates: doc.Templates(),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readGuide(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     NavigationGuide,
		},
	}, nil
}

func (s *Server) readCurrentPage(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if s.nav.Current() == "" {
		return nil, errors.New("nothing loaded yet")
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      currentPageURI,
			MIMEType: "text/plain",
			Text:     s.pageText(),
		},
	}, nil
}

func (s *Server) readCurrentDocument(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc := s.nav.Document()
	if doc == nil {
		return nil, errors.New("nothing loaded yet")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      currentDocumentURI,
			MIMEType: hypermedia.MediaTypeHALForms,
			Text:     string(data),
		},
	}, nil
}
