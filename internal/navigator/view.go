package navigator

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// View is the display the navigator writes into.
type View interface {
	ShowLoading()
	Render(markup string)
	ShowError(msg string)
	HideContent()
}

// Page is an in-memory View. It is safe for concurrent use.
type Page struct {
	mu            sync.Mutex
	markup        string
	errMsg        string
	loading       bool
	contentHidden bool
}

// PageState is a snapshot of a Page.
type PageState struct {
	Markup        string
	Error         string
	Loading       bool
	ContentHidden bool
}

// ShowLoading implements View.
func (p *Page) ShowLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = true
	p.errMsg = ""
}

// Render implements View.
func (p *Page) Render(markup string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markup = markup
	p.loading = false
	p.errMsg = ""
	p.contentHidden = false
}

// ShowError implements View.
func (p *Page) ShowError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	p.errMsg = msg
}

// HideContent implements View.
func (p *Page) HideContent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contentHidden = true
}

// State returns a snapshot of the page.
func (p *Page) State() PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PageState{
		Markup:        p.markup,
		Error:         p.errMsg,
		Loading:       p.loading,
		ContentHidden: p.contentHidden,
	}
}

var textPolicy = bluemonday.StrictPolicy()

// Text renders the visible content as plain text: the error message when
// one is shown and the content is hidden, otherwise the markup with all
// tags removed.
func (p *Page) Text() string {
	st := p.State()
	var b strings.Builder
	if st.Error != "" {
		b.WriteString("error: ")
		b.WriteString(st.Error)
		b.WriteString("\n")
	}
	if !st.ContentHidden && st.Markup != "" {
		b.WriteString(PlainText(st.Markup))
	}
	return strings.TrimSpace(b.String())
}

// PlainText strips markup down to readable text with one line per block.
func PlainText(markup string) string {
	stripped := html.UnescapeString(textPolicy.Sanitize(markup))
	var lines []string
	for _, line := range strings.Split(stripped, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
