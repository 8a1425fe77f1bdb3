package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EndpointError is the base interface for all endpoint errors.
type EndpointError interface {
	error
	IsEndpointError() bool
}

// Compile-time verification that all error types implement EndpointError.
var (
	_ EndpointError = (*ResponseError)(nil)
	_ EndpointError = (*ProtocolError)(nil)
	_ EndpointError = (*HandlerError)(nil)
	_ EndpointError = (*FrameError)(nil)
	_ EndpointError = (*ServerNotFoundError)(nil)
	_ EndpointError = (*ConnectionError)(nil)
	_ EndpointError = (*ProcessError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrRequestTimeout indicates a request's local deadline elapsed before a response arrived.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrRequestCancelled indicates the peer answered a request with a cancellation error.
	ErrRequestCancelled = errors.New("request cancelled")

	// ErrTransportClosed indicates the stream ended or failed while the endpoint was running.
	ErrTransportClosed = errors.New("transport closed")

	// ErrEndpointStopped indicates the endpoint was stopped with the call still pending,
	// or that a call was issued after Stop.
	ErrEndpointStopped = errors.New("endpoint stopped")

	// ErrEndpointNotStarted indicates a call was issued before Start.
	ErrEndpointNotStarted = errors.New("endpoint not started")

	// ErrEndpointAlreadyStarted indicates Start was called more than once.
	ErrEndpointAlreadyStarted = errors.New("endpoint already started")

	// ErrMethodNotFound indicates the peer has no handler for the requested method.
	ErrMethodNotFound = errors.New("method not found")

	// ErrInvalidParams indicates request parameters were rejected.
	ErrInvalidParams = errors.New("invalid params")

	// ErrHandlerExists indicates a handler is already registered for a method.
	ErrHandlerExists = errors.New("handler already registered")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrStdinClosed indicates stdin was closed due to context cancellation.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.New("client not connected")

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.New("client already connected")

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed: clients are single-use, create a new one with NewClient()")
)

// ResponseError is the error object carried by a JSON-RPC error response.
//
// It is both what the peer sends back for a failed call and what the endpoint
// sends for a failed peer-initiated request.
type ResponseError struct {
	Code    Code            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewResponseError creates a ResponseError with the given code and message.
func NewResponseError(code Code, format string, args ...any) *ResponseError {
	return &ResponseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("jsonrpc error %d (%s): %s", e.Code, e.Code, e.Message)
}

// Is maps well-known codes onto the package sentinels, so callers can write
// errors.Is(err, ErrMethodNotFound) without inspecting the code.
func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrMethodNotFound:
		return e.Code == CodeMethodNotFound
	case ErrInvalidParams:
		return e.Code == CodeInvalidParams
	case ErrRequestCancelled:
		return e.Code == CodeRequestCancelled || e.Code == CodeServerCancelled
	}

	return false
}

// IsEndpointError implements EndpointError.
func (e *ResponseError) IsEndpointError() bool { return true }

// ProtocolError indicates an inbound message was malformed.
// The dispatch loop logs and discards these; they are never fatal.
type ProtocolError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}

	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsEndpointError implements EndpointError.
func (e *ProtocolError) IsEndpointError() bool { return true }

// HandlerError indicates a registered handler failed while serving a peer request.
type HandlerError struct {
	Method string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %q failed: %v", e.Method, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsEndpointError implements EndpointError.
func (e *HandlerError) IsEndpointError() bool { return true }

// FrameError indicates a frame could not be read from the byte stream.
// It preserves the raw header or line that failed to parse.
type FrameError struct {
	Raw string
	Err error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("invalid frame: %v", e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsEndpointError implements EndpointError.
func (e *FrameError) IsEndpointError() bool { return true }

// ServerNotFoundError indicates the language server binary was not found.
type ServerNotFoundError struct {
	Command       string
	SearchedPaths []string
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("server %q not found in: %v", e.Command, e.SearchedPaths)
}

// IsEndpointError implements EndpointError.
func (e *ServerNotFoundError) IsEndpointError() bool { return true }

// ConnectionError indicates failure to connect to the server process.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to server: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsEndpointError implements EndpointError.
func (e *ConnectionError) IsEndpointError() bool { return true }

// ProcessError indicates the server process failed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("server process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("server process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsEndpointError implements EndpointError.
func (e *ProcessError) IsEndpointError() bool { return true }
