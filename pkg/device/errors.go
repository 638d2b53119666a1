package device

import "errors"

// Device session errors.
var (
	// ErrNotBound is returned by an operation requiring a session key when
	// the session is Unbound and binding was not attempted, or produced
	// no key.
	ErrNotBound = errors.New("device: session not bound")
	// ErrTimeout is returned when a send drain, bind ready signal, or
	// response await exceeded its deadline.
	ErrTimeout = errors.New("device: timed out waiting for response")
	// ErrValueOutOfRange is returned by a setter given a value outside
	// its valid range (temperature, humidity, fan speed, swing position).
	ErrValueOutOfRange = errors.New("device: value out of range")
	// ErrIncompleteDeviceInfo is returned by Bind when the session's
	// DeviceInfo lacks an IP address to connect to.
	ErrIncompleteDeviceInfo = errors.New("device: device info missing ip address")
)
