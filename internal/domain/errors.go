package domain

import "errors"

// Error categories. Specific errors across the codebase wrap one of these
// with %w so callers can classify them with errors.Is.
var (
	// ErrInputValidation marks malformed or out-of-range user input.
	ErrInputValidation = errors.New("invalid input")

	// ErrNoActiveSession marks operations that need a running session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrNoSelection marks operations that need a selected spot.
	ErrNoSelection = errors.New("no spot selected")

	// ErrConflict marks operations rejected by the current state.
	ErrConflict = errors.New("conflicting state")

	// ErrRemoteService marks wallet service failures (network, timeout, non-2xx).
	ErrRemoteService = errors.New("remote service error")

	// ErrPaymentDeclined marks an explicit non-approval from the wallet service.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrPaymentUnavailable marks a payment that could not be completed
	// remotely nor covered by the local balance.
	ErrPaymentUnavailable = errors.New("payment unavailable")

	// ErrPersistence marks local store write failures.
	ErrPersistence = errors.New("persistence error")
)
