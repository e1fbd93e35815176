package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals a malformed or unsupported request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownMode signals an unsupported search mode.
	ErrUnknownMode = fmt.Errorf("%w: unknown search mode", ErrInvalidRequest)
	// ErrUnknownProvider signals an unsupported or unconfigured catalog provider.
	ErrUnknownProvider = fmt.Errorf("%w: unknown catalog provider", ErrInvalidRequest)

	// ErrLLMProviderError signals an LLM gateway failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrCatalogProviderError signals a catalog gateway failure.
	ErrCatalogProviderError = errors.New("catalog provider error")
	// ErrMalformedResponse signals an upstream reply that does not parse as expected.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// StatusError carries the HTTP status of a failed upstream call.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrCatalogProviderError.Error(), e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrCatalogProviderError }
