package robot

import "errors"

var (
	// ErrDeviceNotFound is returned when no device is attached to a port.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrBadPort is returned for ports outside A-D or 1-4.
	ErrBadPort = errors.New("invalid port")
)
