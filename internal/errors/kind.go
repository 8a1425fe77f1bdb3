package errors

import "errors"

// Kind is the category of an endpoint failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindProtocol
	KindMethodNotFound
	KindInvalidParams
	KindInternalHandler
	KindTimeout
	KindCancelled
	KindTransportClosed
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindMethodNotFound:
		return "method_not_found"
	case KindInvalidParams:
		return "invalid_params"
	case KindInternalHandler:
		return "internal_handler"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	case KindTransportClosed:
		return "transport_closed"
	case KindShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Order matters: a timeout wrapped inside a shutdown
// error, for example, is reported as the outermost condition that matches.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	switch {
	case errors.Is(err, ErrEndpointStopped), errors.Is(err, ErrEndpointNotStarted):
		return KindShutdown
	case errors.Is(err, ErrTransportClosed):
		return KindTransportClosed
	case errors.Is(err, ErrRequestTimeout):
		return KindTimeout
	case errors.Is(err, ErrRequestCancelled):
		return KindCancelled
	case errors.Is(err, ErrMethodNotFound):
		return KindMethodNotFound
	case errors.Is(err, ErrInvalidParams):
		return KindInvalidParams
	}

	if _, ok := errors.AsType[*HandlerError](err); ok {
		return KindInternalHandler
	}

	if rerr, ok := errors.AsType[*ResponseError](err); ok && rerr.Code == CodeInternalError {
		return KindInternalHandler
	}

	if _, ok := errors.AsType[*ProtocolError](err); ok {
		return KindProtocol
	}

	if _, ok := errors.AsType[*FrameError](err); ok {
		return KindProtocol
	}

	return KindUnknown
}
