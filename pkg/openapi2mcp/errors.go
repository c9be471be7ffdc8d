package openapi2mcp

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failed call_function invocation.
type ErrorKind string

const (
	KindSpecUnavailable       ErrorKind = "spec_unavailable"
	KindToolNotFound          ErrorKind = "tool_not_found"
	KindAccessDenied          ErrorKind = "access_denied"
	KindMissingPathParameter  ErrorKind = "missing_path_parameter"
	KindNoBaseURL             ErrorKind = "no_base_url"
	KindUpstreamRequestFailed ErrorKind = "upstream_request_failed"
	KindInvalidArgument       ErrorKind = "invalid_argument"
	KindInternal              ErrorKind = "internal"
)

// ProxyError represents a structured error with context
type ProxyError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`

	cause error
}

// Error implements the error interface
func (e *ProxyError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ProxyError) Unwrap() error {
	return e.cause
}

// Payload returns the caller-facing error object.
func (e *ProxyError) Payload() map[string]string {
	return map[string]string{"error": e.Message}
}

// NewError creates a new ProxyError
func NewError(kind ErrorKind, message string) *ProxyError {
	return &ProxyError{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
}

// Wrap wraps a standard error as a ProxyError
func Wrap(err error, kind ErrorKind, message string) *ProxyError {
	if err == nil {
		return nil
	}
	pe := NewError(kind, message)
	pe.Details = err.Error()
	pe.cause = err
	return pe
}

// withRequestID stamps the error with the call's request ID.
func (e *ProxyError) withRequestID(id string) *ProxyError {
	e.RequestID = id
	return e
}

// IsKind checks if the error is a ProxyError of a specific kind
func IsKind(err error, kind ErrorKind) bool {
	var pe *ProxyError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// KindOf returns the error kind if it's a ProxyError, otherwise KindInternal
func KindOf(err error) ErrorKind {
	var pe *ProxyError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// AsProxyError converts any error into a ProxyError, wrapping foreign errors
// as internal failures.
func AsProxyError(err error) *ProxyError {
	if err == nil {
		return nil
	}
	var pe *ProxyError
	if errors.As(err, &pe) {
		return pe
	}
	return Wrap(err, KindInternal, err.Error())
}
