package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Reason classifies why a structured extraction call failed.
type Reason string

const (
	ReasonEmptyInput      Reason = "empty_input"
	ReasonNetwork         Reason = "network"
	ReasonTimeout         Reason = "timeout"
	ReasonStatus          Reason = "status"
	ReasonRateLimited     Reason = "rate_limited"
	ReasonEmptyResponse   Reason = "empty_response"
	ReasonInvalidResponse Reason = "invalid_response"
)

// Error is the typed failure returned by every structured extraction backend.
type Error struct {
	Provider   string
	Reason     Reason
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonEmptyInput:
		return "no OCR text to analyse"
	case ReasonTimeout:
		return fmt.Sprintf("%s request timed out: %v", e.Provider, e.Err)
	case ReasonStatus:
		return fmt.Sprintf("%s returned status %d: %v", e.Provider, e.StatusCode, e.Err)
	case ReasonRateLimited:
		return fmt.Sprintf("%s rate limited (retry after %s)", e.Provider, e.RetryAfter)
	case ReasonEmptyResponse:
		return fmt.Sprintf("%s returned an empty response", e.Provider)
	case ReasonInvalidResponse:
		return fmt.Sprintf("decoding %s response: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("cannot reach %s: %v", e.Provider, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsReason reports whether err is an *Error with the given reason.
func IsReason(err error, reason Reason) bool {
	var le *Error
	return errors.As(err, &le) && le.Reason == reason
}

// TransportError classifies an error returned by http.Client.Do.
func TransportError(provider string, err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Provider: provider, Reason: ReasonTimeout, Err: err}
	}
	return &Error{Provider: provider, Reason: ReasonNetwork, Err: err}
}

// StatusError builds the failure for a non-2xx response.
func StatusError(provider string, resp *http.Response, body []byte) *Error {
	baseErr := errors.New(truncate(string(body), 300))
	if resp.StatusCode == http.StatusTooManyRequests {
		secs := ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 60
		}
		return &Error{
			Provider:   provider,
			Reason:     ReasonRateLimited,
			StatusCode: resp.StatusCode,
			RetryAfter: time.Duration(secs) * time.Second,
			Err:        baseErr,
		}
	}
	return &Error{Provider: provider, Reason: ReasonStatus, StatusCode: resp.StatusCode, Err: baseErr}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
