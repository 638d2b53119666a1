package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed endpoint.
	ErrClosed = errors.New("transport: closed")

	// ErrNoHandler is returned when no packet handler is configured.
	ErrNoHandler = errors.New("transport: no packet handler configured")

	// ErrAlreadyStarted is returned when Start is called on a running endpoint.
	ErrAlreadyStarted = errors.New("transport: already started")

	// ErrInvalidAddress is returned when Send is called without a usable peer address.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrSendTimeout is returned when a send could not drain within its deadline.
	ErrSendTimeout = errors.New("transport: send drain timed out")
)
