package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	// ErrMissingCredentials is returned by a generation provider whose API key is unset.
	ErrMissingCredentials = errors.New("missing provider credentials")
	// ErrProviderResponse is returned when a provider reply carries no usable text.
	ErrProviderResponse = errors.New("malformed provider response")
)
