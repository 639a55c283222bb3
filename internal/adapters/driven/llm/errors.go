// Package llm holds what the language model adapters share: provider
// status errors and a resilience wrapper around any driven.LLMService.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of a provider error body is kept.
const maxErrorBody = 512

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

// NewStatusError builds a StatusError, truncating long bodies.
func NewStatusError(provider string, code int, body []byte) *StatusError {
	b := string(body)
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody] + "..."
	}
	return &StatusError{Provider: provider, Code: code, Body: b}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.Code, e.Body)
}

// Temporary reports whether retrying later may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// FailureReason classifies an error into a short metrics label.
func FailureReason(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, errRateWait):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &statusErr):
		if statusErr.Code == http.StatusTooManyRequests {
			return "rate_limited"
		}
		return fmt.Sprintf("status_%d", statusErr.Code)
	default:
		return "transport"
	}
}

var errRateWait = errors.New("rate limit wait")

// waitRate blocks on the limiter and marks its failures for FailureReason.
func waitRate(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", errRateWait, err)
	}
	return nil
}
