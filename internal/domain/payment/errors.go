package payment

import "errors"

var (
	// ErrValidationFailure rejects user input before any state change.
	ErrValidationFailure = errors.New("validation failure")
	// ErrSignatureInvalid is never retried automatically.
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrPaymentNotFound  = errors.New("payment not found")
	// ErrUpstreamUnavailable wraps gateway or ledger API failures.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrPaymentFinished     = errors.New("payment already finished")
	ErrConcurrentUpdate    = errors.New("payment modified concurrently")
)
