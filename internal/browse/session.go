// Package browse is an interactive terminal client for the navigator: it
// prints each rendered page and lets the user pick the next link.
package browse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/starford/skulls/internal/hypermedia"
	"github.com/starford/skulls/internal/navigator"
)

var errInvalidBody = errors.New("body is not valid JSON")

const (
	choiceBack    = "< back"
	choiceForward = "> forward"
	choiceReload  = "reload"
	choiceQuit    = "quit"
)

// Session couples a navigator, the page it renders into and a prompter.
type Session struct {
	nav    *navigator.Navigator
	page   *navigator.Page
	prompt Prompter
	out    io.Writer
}

// NewSession creates a Session writing pages to out.
func NewSession(nav *navigator.Navigator, page *navigator.Page, prompt Prompter, out io.Writer) *Session {
	return &Session{nav: nav, page: page, prompt: prompt, out: out}
}

// Run discovers the API (or opens start when set) and loops until the user
// quits or ctx ends. Navigation errors are printed and the loop continues.
func (s *Session) Run(ctx context.Context, start string) error {
	// Failures are already on the page; the loop lets the user recover.
	if start != "" {
		_ = s.nav.Follow(ctx, start, navigator.FollowOptions{})
	} else {
		_ = s.nav.Discover(ctx)
	}
	s.show()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		done, err := s.step(ctx)
		if errors.Is(err, ErrQuit) || done {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) step(ctx context.Context) (bool, error) {
	links := s.nav.Document().SortedLinks()
	options := make([]string, 0, len(links)+4)
	for _, l := range links {
		options = append(options, fmt.Sprintf("%s (%s) %s", l.Rel, l.Method, l.Href))
	}
	options = append(options, choiceBack, choiceForward, choiceReload, choiceQuit)

	idx, err := s.prompt.Select(ctx, "Follow", options)
	if err != nil {
		return false, err
	}
	if idx < 0 || idx >= len(options) {
		return false, fmt.Errorf("browse: choice %d out of range", idx)
	}

	if idx < len(links) {
		opts, err := s.followOptions(ctx, links[idx])
		if errors.Is(err, errInvalidBody) {
			fmt.Fprintln(s.out, err)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		_ = s.nav.Follow(ctx, links[idx].Href, opts)
		s.show()
		return false, nil
	}

	switch options[idx] {
	case choiceBack:
		s.printHistory(s.nav.Back(ctx))
	case choiceForward:
		s.printHistory(s.nav.Forward(ctx))
	case choiceReload:
		_ = s.nav.Restore(ctx, s.nav.Current())
		s.show()
	case choiceQuit:
		return true, nil
	}
	return false, nil
}

// followOptions collects a request body for links that write.
func (s *Session) followOptions(ctx context.Context, l hypermedia.Link) (navigator.FollowOptions, error) {
	opts := navigator.FollowOptions{Method: l.Method}
	if l.Method != http.MethodPost && l.Method != http.MethodPut && l.Method != http.MethodPatch {
		return opts, nil
	}

	if tmpl, ok := s.templateFor(l); ok && len(tmpl.Properties) > 0 {
		body, err := s.fillTemplate(ctx, tmpl)
		if err != nil {
			return opts, err
		}
		opts.Body = body
		return opts, nil
	}

	raw, err := s.prompt.Input(ctx, "JSON body", "{}", true)
	if err != nil {
		return opts, err
	}
	if !json.Valid([]byte(raw)) {
		return opts, errInvalidBody
	}
	opts.Body = json.RawMessage(raw)
	return opts, nil
}

// templateFor finds the HAL-FORMS template matching the link's method.
func (s *Session) templateFor(l hypermedia.Link) (hypermedia.Template, bool) {
	for _, tmpl := range s.nav.Document().Templates() {
		if strings.EqualFold(tmpl.Method, l.Method) {
			return tmpl, true
		}
	}
	return hypermedia.Template{}, false
}

func (s *Session) fillTemplate(ctx context.Context, tmpl hypermedia.Template) (map[string]any, error) {
	current := s.nav.Document()
	body := make(map[string]any, len(tmpl.Properties))
	for _, p := range tmpl.Properties {
		if p.ReadOnly {
			continue
		}
		label := p.Prompt
		if label == "" {
			label = p.Name
		}
		if p.Options != nil && len(p.Options.Inline) > 0 {
			idx, err := s.prompt.Select(ctx, label, p.Options.Inline)
			if err != nil {
				return nil, err
			}
			if idx >= 0 && idx < len(p.Options.Inline) {
				body[p.Name] = p.Options.Inline[idx]
			}
			continue
		}
		def := ""
		if v, ok := current[p.Name]; ok && v != nil {
			def = fmt.Sprint(v)
		}
		v, err := s.prompt.Input(ctx, label, def, p.Required)
		if err != nil {
			return nil, err
		}
		if v != "" {
			body[p.Name] = v
		}
	}
	return body, nil
}

func (s *Session) printHistory(err error) {
	if errors.Is(err, navigator.ErrNoHistory) {
		fmt.Fprintln(s.out, "(no history in that direction)")
		return
	}
	s.show()
}

func (s *Session) show() {
	fmt.Fprintln(s.out, strings.Repeat("-", 60))
	if cur := s.nav.Current(); cur != "" {
		fmt.Fprintf(s.out, "%s  [history %d]\n\n", cur, s.nav.History().Len())
	}
	fmt.Fprintln(s.out, s.page.Text())
}
