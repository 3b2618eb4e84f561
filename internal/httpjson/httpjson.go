// Package httpjson writes JSON responses for the frontend API and the hypermedia backend.
package httpjson

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ContentTypeJSON is the default response content type.
const ContentTypeJSON = "application/json; charset=utf-8"

// ErrorBody is the error envelope shared by every endpoint.
type ErrorBody struct {
	Error  string `json:"error" validate:"required"`
	Fields any    `json:"fields,omitempty"`
}

// Write encodes v as JSON with the default content type.
func Write(w http.ResponseWriter, status int, v any) {
	WriteType(w, status, ContentTypeJSON, v)
}

// WriteType encodes v as JSON with the given content type.
func WriteType(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// Error writes an ErrorBody carrying msg.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, ErrorBody{Error: msg})
}
