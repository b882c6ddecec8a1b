package api

import (
	"errors"
	"fmt"
)

// Common errors returned by the backend client.
var (
	// ErrNotFound indicates the resource was not found.
	ErrNotFound = errors.New("not found in webtoon backend")

	// ErrRateLimited indicates the backend rejected the request rate.
	ErrRateLimited = errors.New("webtoon backend rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with webtoon backend")

	// ErrInvalidResponse indicates an unexpected response body.
	ErrInvalidResponse = errors.New("invalid response from webtoon backend")

	// ErrInvalidRequest indicates the caller supplied unusable arguments.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnsuccessful indicates the backend answered with success=false.
	ErrUnsuccessful = errors.New("webtoon backend reported failure")
)

// APIError represents an HTTP error from the backend.
type APIError struct {
	StatusCode int
	Code       string // e.g. "not_found", "server_error"
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("webtoon API error (status %d, code %s): %s (endpoint: %s)", e.StatusCode, e.Code, e.Message, e.Endpoint)
	}
	return fmt.Sprintf("webtoon API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 || apiErr.Code == "not_found"
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsUnavailable returns true if the data could not be obtained for reasons a
// caller should recover from with fallback data: transport failures, server
// errors, malformed bodies and success=false answers.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrUnsuccessful) ||
		errors.Is(err, ErrInvalidResponse) || errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 404
	}
	return false
}
