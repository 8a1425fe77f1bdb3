package lspclient

import "github.com/wagiedev/lsp-client-go/internal/errors"

// Re-export error types from internal package

// ResponseError is a JSON-RPC error object returned by the server.
// errors.Is maps well-known codes to the sentinels below.
type ResponseError = errors.ResponseError

// Code is a JSON-RPC error code.
type Code = errors.Code

// ProtocolError indicates an inbound message that is not valid JSON-RPC.
type ProtocolError = errors.ProtocolError

// HandlerError indicates a local handler failed or panicked.
type HandlerError = errors.HandlerError

// FrameError indicates the byte stream could not be split into messages.
type FrameError = errors.FrameError

// ServerNotFoundError indicates the language server binary was not found.
type ServerNotFoundError = errors.ServerNotFoundError

// ConnectionError indicates failure to start or connect to the server.
type ConnectionError = errors.ConnectionError

// ProcessError indicates the server process exited abnormally.
type ProcessError = errors.ProcessError

// EndpointError is the marker interface for all client errors.
type EndpointError = errors.EndpointError

// ErrorKind is the category of a failure; see KindOf.
type ErrorKind = errors.Kind

const (
	KindUnknown         = errors.KindUnknown
	KindProtocol        = errors.KindProtocol
	KindMethodNotFound  = errors.KindMethodNotFound
	KindInvalidParams   = errors.KindInvalidParams
	KindInternalHandler = errors.KindInternalHandler
	KindTimeout         = errors.KindTimeout
	KindCancelled       = errors.KindCancelled
	KindTransportClosed = errors.KindTransportClosed
	KindShutdown        = errors.KindShutdown
)

// Well-known JSON-RPC and LSP error codes.
const (
	CodeParseError       = errors.CodeParseError
	CodeInvalidRequest   = errors.CodeInvalidRequest
	CodeMethodNotFound   = errors.CodeMethodNotFound
	CodeInvalidParams    = errors.CodeInvalidParams
	CodeInternalError    = errors.CodeInternalError
	CodeRequestCancelled = errors.CodeRequestCancelled
	CodeServerCancelled  = errors.CodeServerCancelled
	CodeContentModified  = errors.CodeContentModified
)

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	return errors.KindOf(err)
}

// Re-export sentinel errors from internal package.
var (
	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.ErrClientNotConnected

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.ErrClientAlreadyConnected

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.ErrClientClosed

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrTransportClosed indicates the stream ended or failed while a request was pending.
	ErrTransportClosed = errors.ErrTransportClosed

	// ErrEndpointStopped indicates the client was closed while a request was pending.
	ErrEndpointStopped = errors.ErrEndpointStopped

	// ErrRequestTimeout indicates a request's local deadline elapsed.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrRequestCancelled indicates the server answered a request as cancelled.
	ErrRequestCancelled = errors.ErrRequestCancelled

	// ErrMethodNotFound indicates the server has no handler for a method.
	ErrMethodNotFound = errors.ErrMethodNotFound

	// ErrInvalidParams indicates a request's params were rejected.
	ErrInvalidParams = errors.ErrInvalidParams

	// ErrHandlerExists indicates a handler is already registered for a method.
	ErrHandlerExists = errors.ErrHandlerExists
)
