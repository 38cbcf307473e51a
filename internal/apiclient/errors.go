package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"monocart/internal/validate"
)

var (
	// ErrUnauthorized matches any 401 response via errors.Is
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotAuthenticated is returned before a protected call when no token is available
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMalformedResponse is returned when a successful response cannot be used
	ErrMalformedResponse = errors.New("malformed response")

	ErrInvalidBaseURL = errors.New("base url must be absolute")
)

// APIError is a non-2xx response from the Monocart API
type APIError struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Is makes a 401 APIError match ErrUnauthorized
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// NetworkError is a request that never produced a response
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// Message renders err as the user-facing string kept in slice error fields
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	var netErr *NetworkError
	var validationErr *validate.Error

	switch {
	case errors.As(err, &validationErr):
		return validationErr.First()
	case errors.Is(err, ErrNotAuthenticated):
		return "You must be logged in"
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusUnauthorized {
			return "Your session has expired, please log in again"
		}
		return apiErr.Message
	case errors.As(err, &netErr):
		return "Network error: unable to reach the server"
	case errors.Is(err, ErrMalformedResponse):
		return "Unexpected response from server"
	default:
		return err.Error()
	}
}
