package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an operation is not allowed in the
// current state of a state machine. Machine-specific errors unwrap to it.
var ErrInvalidTransition = errors.New("invalid transition")

// ValidationError rejects user input before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// FailureKind classifies why an upload or query ended in error.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureNetwork covers transport errors, timeouts and unparseable bodies.
	FailureNetwork
	// FailureServer is a non-2xx status carrying a server message.
	FailureServer
)

func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureServer:
		return "server"
	default:
		return "none"
	}
}
