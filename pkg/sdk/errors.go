package recollect

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/recollect/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest  = domain.ErrInvalidRequest
	ErrUnknownMode     = domain.ErrUnknownMode
	ErrUnknownProvider = domain.ErrUnknownProvider
)

// ErrUnauthorized is returned when the server rejects the API key.
var ErrUnauthorized = errors.New("recollect: unauthorized")

// APIError is a non-2xx reply from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("recollect: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the reply onto the sentinel it represents, if any.
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == "unknown_mode":
		return ErrUnknownMode
	case e.Code == "unknown_provider":
		return ErrUnknownProvider
	case e.StatusCode == http.StatusBadRequest:
		return ErrInvalidRequest
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}
