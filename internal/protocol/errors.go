package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/muurk/frisquet/internal/rf"
)

// ErrorType represents the category of a protocol engine failure
type ErrorType int

const (
	// ErrTypeTransport indicates an I/O failure of the radio transport
	ErrTypeTransport ErrorType = iota
	// ErrTypeTimeout indicates that nothing arrived before a receive deadline
	ErrTypeTimeout
	// ErrTypeDecode indicates a malformed header, wrong length or failed body assertion
	ErrTypeDecode
	// ErrTypeProtocol indicates a protocol violation (fatal, never retried)
	ErrTypeProtocol
	// ErrTypeConfig indicates missing identifiers or invalid schedule/setpoint values
	ErrTypeConfig
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeDecode:
		return "Frame Decode Error"
	case ErrTypeProtocol:
		return "Protocol Violation"
	case ErrTypeConfig:
		return "Configuration Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is the error returned by the protocol engine.
type Error struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Payload []byte    // Offending frame or body, if any
	Err     error     // Underlying error (if any)
}

// Error implements the error interface. The raw payload is always included
// so that failures can be diagnosed from the message alone.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Err)
	}
	if len(e.Payload) > 0 {
		msg = fmt.Sprintf("%s [payload: %s]", msg, hex.EncodeToString(e.Payload))
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports timeouts as rf.ErrTimeout so errors.Is works on wrapped timeouts
// that were created without an underlying error.
func (e *Error) Is(target error) bool {
	return target == rf.ErrTimeout && e.Type == ErrTypeTimeout
}

// NewDecodeError creates a frame decode error for payload.
func NewDecodeError(message string, payload []byte) *Error {
	return &Error{Type: ErrTypeDecode, Message: message, Payload: payload}
}

// NewProtocolViolation creates a fatal protocol error for payload.
func NewProtocolViolation(message string, payload []byte) *Error {
	return &Error{Type: ErrTypeProtocol, Message: message, Payload: payload}
}

// NewConfigError creates a configuration error.
func NewConfigError(format string, args ...any) *Error {
	return &Error{Type: ErrTypeConfig, Message: fmt.Sprintf(format, args...)}
}

// NewTransportError classifies a transport failure; timeouts become ErrTypeTimeout.
func NewTransportError(message string, err error) *Error {
	if err == nil {
		return nil
	}
	t := ErrTypeTransport
	if errors.Is(err, rf.ErrTimeout) {
		t = ErrTypeTimeout
	}
	return &Error{Type: t, Message: message, Err: err}
}

// IsType reports whether err is a protocol *Error of the given type.
func IsType(err error, t ErrorType) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Type == t
}

// IsTimeout reports whether err means "nothing arrived" rather than a link failure.
func IsTimeout(err error) bool {
	return errors.Is(err, rf.ErrTimeout)
}
