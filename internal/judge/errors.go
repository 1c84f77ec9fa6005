package judge

import "errors"

var (
	// ErrUnauthenticated is returned when no caller identity is attached
	// to the request.
	ErrUnauthenticated = errors.New("judge: caller not authenticated")

	// ErrInvalidAction is returned for action strings outside the
	// enumerated set, before any backend call.
	ErrInvalidAction = errors.New("judge: invalid action")

	// ErrPayloadTooLarge is a hard reject on the top-level message
	// argument, before any backend call. Context sub-fields are truncated
	// instead.
	ErrPayloadTooLarge = errors.New("judge: message payload too large")

	// ErrRateLimited is propagated distinctly so callers can back off.
	ErrRateLimited = errors.New("judge: reasoning backend rate limited")

	// ErrBackendUnavailable covers every other upstream failure, including
	// the call timeout. The dispatcher is single-shot, so no partial state
	// change needs compensating.
	ErrBackendUnavailable = errors.New("judge: reasoning backend unavailable")
)
