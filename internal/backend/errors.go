package backend

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a backend failure.
type ErrorKind string

const (
	// KindConnection covers refused connections, DNS failures and timeouts.
	KindConnection ErrorKind = "CONNECTION_FAILURE"
	// KindProtocol covers unexpected HTTP status codes.
	KindProtocol ErrorKind = "PROTOCOL_FAILURE"
	// KindSerialization covers request encoding and response decoding failures.
	KindSerialization ErrorKind = "SERIALIZATION_FAILURE"
)

// Error is a failed backend request.
type Error struct {
	Kind    ErrorKind
	Backend string
	Op      string
	// Status is the HTTP status for protocol failures.
	Status int
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s %s", e.Kind, e.Backend, e.Op)
	if e.Status != 0 {
		msg += fmt.Sprintf(" 返回状态码 %d", e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a transport failure.
func NewConnectionError(backend, op string, cause error) *Error {
	return &Error{Kind: KindConnection, Backend: backend, Op: op, Cause: cause}
}

// NewProtocolError creates an unexpected status failure.
func NewProtocolError(backend, op string, status int, body []byte) *Error {
	var cause error
	if len(body) > 0 {
		cause = errors.New(truncate(string(body), 256))
	}
	return &Error{Kind: KindProtocol, Backend: backend, Op: op, Status: status, Cause: cause}
}

// NewSerializationError creates an encoding or decoding failure.
func NewSerializationError(backend, op string, cause error) *Error {
	return &Error{Kind: KindSerialization, Backend: backend, Op: op, Cause: cause}
}

// IsKind reports whether err is a backend error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
