package api

import "encoding/json"

// GenerateRequest is the request body for the generation endpoint.
type GenerateRequest struct {
	HateoasResponse json.RawMessage `json:"hateoasResponse" validate:"required"`
}

// GenerateResponse carries the generated markup.
type GenerateResponse struct {
	HTML string `json:"html" example:"<section>...</section>" validate:"required"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status" example:"ok" validate:"required"`
	Timestamp string `json:"timestamp" example:"2025-01-01T00:00:00.000Z" validate:"required"`
}
