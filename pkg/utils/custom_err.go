package utils

import "errors"

var (
	ErrInputInvalid        = errors.New("input invalid")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrDeadlineExceeded    = errors.New("deadline exceeded")
	ErrInternalInvariant   = errors.New("internal invariant violated")
	ErrRateLimited         = errors.New("rate limited")
	ErrSessionNotFound     = errors.New("session not found")
	ErrPlanNotFound        = errors.New("plan not found")
	ErrDatabaseError       = errors.New("database error")
	ErrLLMBadResponse      = errors.New("llm returned unusable response")
	ErrInvalidPage         = errors.New("invalid page parameter")
)

// ErrorCode maps a sentinel error to the wire-level error taxonomy code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInputInvalid):
		return "input_invalid"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrDeadlineExceeded):
		return "deadline_exceeded"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInternalInvariant):
		return "internal_invariant_violated"
	default:
		return "internal_error"
	}
}
