package edwa

import "errors"

// Sentinel errors for token and handler failures.
var (
	// ErrTampering covers every way a token can fail verification:
	// signature mismatch, malformed structure, bad base64, corrupted
	// compressed payload, or an action paired with the wrong page.
	ErrTampering = errors.New("edwa: token failed verification")

	// ErrNotRegistered is returned when a token references a handler
	// name the registry does not know. It indicates a code/deployment
	// mismatch, not attacker input, and is not retryable.
	ErrNotRegistered = errors.New("edwa: handler not registered")
)

// IsTampering checks if err is a token verification failure.
func IsTampering(err error) bool {
	return errors.Is(err, ErrTampering)
}

// IsResolution checks if err is a handler resolution failure.
func IsResolution(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}
