package httpclient

import (
	"errors"
	"fmt"
)

var (
	// ErrRetriesExhausted means every attempt got a retryable status (429 or 5xx)
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrRequestFailed means the remote answered with a non-retryable status
	// or the request could not be sent
	ErrRequestFailed = errors.New("request failed")
)

// maxErrorBody bounds how much of an error response is kept on APIError
const maxErrorBody = 1024

// APIError is returned for any failed call to an external API
type APIError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s: HTTP %d: %v: %s", e.Service, e.StatusCode, e.Err, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status from an APIError chain, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
