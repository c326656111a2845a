package datasource

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection refused, DNS, timeout)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates a rejected token
	ErrTypeAuth
	// ErrTypeHTTP indicates an unexpected status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed state or a missing temperature
	ErrTypeParse
)

func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// SourceError is a failure to read the temperature source.
type SourceError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewNetworkError classifies a transport failure. DNS failures are final;
// everything else is worth retrying.
func NewNetworkError(message string, err error) *SourceError {
	e := &SourceError{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	var dnsErr *net.DNSError
	switch {
	case os.IsTimeout(err):
		e.Message = message + ": request timed out"
	case errors.As(err, &dnsErr):
		e.Message = fmt.Sprintf("%s: cannot resolve %s", message, dnsErr.Name)
		e.Retryable = false
	case errors.Is(err, syscall.ECONNREFUSED):
		e.Message = message + ": connection refused"
	}
	return e
}

// NewHTTPError creates an HTTP-level error; server errors are retryable.
func NewHTTPError(statusCode int, message string) *SourceError {
	return &SourceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *SourceError {
	return &SourceError{Type: ErrTypeAuth, Message: message}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *SourceError {
	return &SourceError{Type: ErrTypeParse, Message: message, Err: err}
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Retryable
	}
	return false
}

// IsType checks the category of a source error.
func IsType(err error, t ErrorType) bool {
	var srcErr *SourceError
	return errors.As(err, &srcErr) && srcErr.Type == t
}
