package generate

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/starford/skulls/internal/hypermedia"
)

// DefaultSystemPrompt steers the model towards self-contained markup whose
// controls route through the client-side navigation entry point.
const DefaultSystemPrompt = `You generate HTML user interfaces from HATEOAS responses that follow the HAL and HAL-FORMS conventions.
Your output is inserted inside an existing <body>; do not emit <html>, <head> or <body> tags.
Do not use external libraries, frameworks, fonts or stylesheets.
Do not include any <script> elements.
Output only HTML with inline CSS. Be creative with the styling: gradients, shadows, animations and interesting layouts are welcome.
The result must be usable: no placeholder text, and every interactive element must do something.
Render the resource's own properties and every item under _embedded.
Every navigation and form submission must call window.app.followLink(url, method, data):
  - links: onclick="window.app.followLink('<href>')"
  - forms built from _templates: collect the fields into an object and call window.app.followLink('<target>', '<METHOD>', data).
Use the validation rules in _templates (required, minLength, maxLength, regex, options) as HTML form constraints.`

// UserPrompt renders the user message carrying the serialized document.
func UserPrompt(doc hypermedia.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("generate: encode document: %w", err)
	}
	return "Generate HTML UI for this HATEOAS response: " + string(data), nil
}

// Prompt holds the active system prompt. It is safe for concurrent use and
// may be swapped at runtime by a Watcher.
type Prompt struct {
	text atomic.Pointer[string]
}

// NewPrompt returns a Prompt initialised with text, or DefaultSystemPrompt when text is empty.
func NewPrompt(text string) *Prompt {
	p := &Prompt{}
	p.Set(text)
	return p
}

// System returns the current system prompt.
func (p *Prompt) System() string {
	if p == nil {
		return DefaultSystemPrompt
	}
	if s := p.text.Load(); s != nil {
		return *s
	}
	return DefaultSystemPrompt
}

// Set replaces the system prompt. Blank text restores the default.
func (p *Prompt) Set(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = DefaultSystemPrompt
	}
	p.text.Store(&text)
}

// LoadFile reads the system prompt from path.
func (p *Prompt) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("generate: read prompt file %s: %w", path, err)
	}
	p.Set(string(data))
	return nil
}
