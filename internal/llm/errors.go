package llm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrModelCall is wrapped by every failure of a model round trip.
	ErrModelCall = errors.New("model call failed")

	// ErrMissingAPIKey is returned when the gemini provider has no key.
	ErrMissingAPIKey = errors.New("missing API key")
)

// APIError is a non-2xx answer from the model endpoint.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		if e.Status != "" {
			return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Status, e.Message)
		}
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// TimeoutError means the model did not answer before the deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("model did not respond within %s", e.After)
	}
	return "model did not respond before the deadline"
}

// UnreachableError indicates the model endpoint could not be contacted.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}
