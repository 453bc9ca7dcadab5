package application

import "errors"

var (
	// ErrInvalidConfirmations is returned when requesting a forwarding
	// address with a confirmation threshold lower than 1.
	ErrInvalidConfirmations = errors.New("confirmations must be at least 1")
	// ErrInvalidForwardingAddress ...
	ErrInvalidForwardingAddress = errors.New("forwarding address must not be null")
	// ErrUpstream is returned when the payment gateway call fails. The
	// failure is surfaced as is, retry policy belongs to the caller.
	ErrUpstream = errors.New("payment gateway request failed")
)
