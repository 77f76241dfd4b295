package platform

import "errors"

// Domain-specific errors for the platform package.
var (
	// ErrUnknownDriver is returned when the GPIO driver name is not recognised.
	ErrUnknownDriver = errors.New("platform: unknown gpio driver")

	// ErrInvalidPin is returned when a pin number has no GPIO behind it.
	ErrInvalidPin = errors.New("platform: invalid pin")

	// ErrPinNotFound is returned when the GPIO registry has no such pin.
	ErrPinNotFound = errors.New("platform: pin not found")
)
