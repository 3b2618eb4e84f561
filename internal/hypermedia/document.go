// Package hypermedia models HAL and HAL-FORMS documents as loosely typed JSON.
package hypermedia

import (
	"encoding/json"
	"fmt"
)

// Media types understood by the navigator and served by the backend.
const (
	MediaTypeHALForms = "application/prs.hal-forms+json"
	MediaTypeHAL      = "application/hal+json"
	MediaTypeJSON     = "application/json"
)

// Accept is the Accept header value sent on every hypermedia fetch.
const Accept = MediaTypeHALForms + ", " + MediaTypeHAL + ";q=0.9, " + MediaTypeJSON + ";q=0.8"

// Document is an arbitrary JSON object. No schema is enforced: _links,
// links, _embedded and _templates are all optional.
type Document map[string]any

// Parse decodes a JSON object into a Document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("hypermedia: parse document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("hypermedia: document is not a JSON object")
	}
	return doc, nil
}

// Embedded returns the _embedded collections. Entries that are not
// sequences of objects are skipped.
func (d Document) Embedded() map[string][]Document {
	raw, ok := d["_embedded"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]Document, len(raw))
	for name, v := range raw {
		items, ok := v.([]any)
		if !ok {
			continue
		}
		docs := make([]Document, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				docs = append(docs, Document(m))
			}
		}
		out[name] = docs
	}
	return out
}

// Template is a HAL-FORMS template.
type Template struct {
	Method      string     `json:"method"`
	Target      string     `json:"target,omitempty"`
	Title       string     `json:"title,omitempty"`
	ContentType string     `json:"contentType,omitempty"`
	Properties  []Property `json:"properties,omitempty"`
}

// Property is one field of a HAL-FORMS template with its validation rules.
type Property struct {
	Name      string   `json:"name"`
	Prompt    string   `json:"prompt,omitempty"`
	Required  bool     `json:"required,omitempty"`
	ReadOnly  bool     `json:"readOnly,omitempty"`
	Type      string   `json:"type,omitempty"`
	Regex     string   `json:"regex,omitempty"`
	MinLength int      `json:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Options   *Options `json:"options,omitempty"`
}

// Options lists the inline choices of a property.
type Options struct {
	Inline []string `json:"inline"`
}

// Templates decodes the _templates section. A malformed section yields nil.
func (d Document) Templates() map[string]Template {
	raw, ok := d["_templates"]
	if !ok {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var out map[string]Template
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
