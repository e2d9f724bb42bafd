package remote

import "errors"

var (
	// ErrInvalidMessage is returned for payloads that are not a remote call.
	ErrInvalidMessage = errors.New("invalid remote call message")
	// ErrUnknownMethod is returned when the delegate has no such method.
	ErrUnknownMethod = errors.New("delegate does not have method")
	// ErrBadArgs is returned when arguments do not match the method.
	ErrBadArgs = errors.New("bad arguments")
	// ErrQueueFull is returned by Deliver when the work queue is saturated.
	ErrQueueFull = errors.New("call queue full")
)
