package protocol

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/wagiedev/lsp-client-go/internal/errors"
	"github.com/wagiedev/lsp-client-go/internal/jsonrpc"
)

// readLoop is the dispatch loop: the sole reader of the transport.
// On exit it moves the endpoint to Stopped and resolves every pending call.
func (e *Endpoint) readLoop(
	ctx context.Context,
	messages <-chan []byte,
	errs <-chan error,
) {
	defer e.wg.Done()

	var cause error

	defer func() {
		if r := recover(); r != nil {
			cause = fmt.Errorf("%w: dispatch loop panic: %v", errors.ErrTransportClosed, r)
			e.log.Error("Dispatch loop panicked", "panic", r)
			e.SetFatalError(cause)
		}

		e.finish(cause)
	}()

	cause = e.dispatch(ctx, messages, errs)
}

// dispatch runs until the loop must stop and returns the error that pending
// calls are resolved with.
func (e *Endpoint) dispatch(
	ctx context.Context,
	messages <-chan []byte,
	errs <-chan error,
) error {
	for {
		select {
		case data, ok := <-messages:
			if !ok {
				if err := pendingError(errs); err != nil {
					return e.transportFailed(err)
				}

				e.log.Info("Transport reached end of stream")

				return fmt.Errorf("%w: end of stream", errors.ErrTransportClosed)
			}

			e.handleMessage(ctx, data)

		case err, ok := <-errs:
			if !ok {
				// Keep draining messages until the data channel closes.
				errs = nil

				continue
			}

			if err != nil {
				return e.transportFailed(err)
			}

		case <-e.done:
			e.log.Debug("Endpoint stop signal received")

			return errors.ErrEndpointStopped

		case <-ctx.Done():
			e.log.Debug("Context cancelled in dispatch loop")

			return fmt.Errorf("%w: %w", errors.ErrEndpointStopped, ctx.Err())
		}
	}
}

func (e *Endpoint) transportFailed(err error) error {
	e.log.Error("Transport failed", "error", err)
	e.SetFatalError(err)

	return fmt.Errorf("%w: %w", errors.ErrTransportClosed, err)
}

// pendingError returns an error already queued on errs, without blocking.
func pendingError(errs <-chan error) error {
	if errs == nil {
		return nil
	}

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

func (e *Endpoint) finish(cause error) {
	e.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
	e.closeDone()
	e.failPending(cause)
	e.state.Store(int32(StateStopped))

	e.log.Debug("Dispatch loop stopped", "cause", cause)
}

// handleMessage classifies one inbound frame and routes it.
func (e *Endpoint) handleMessage(ctx context.Context, data []byte) {
	msg, err := jsonrpc.Decode(data)
	if err != nil {
		e.log.Warn("Discarding malformed message", "error", err)

		return
	}

	switch m := msg.(type) {
	case *jsonrpc.Request:
		e.handleRequest(ctx, m)
	case *jsonrpc.Notification:
		e.handleNotification(ctx, m)
	case *jsonrpc.Response:
		e.handleResponse(m)
	}
}

// handleResponse resolves the pending call for a response to one of our requests.
func (e *Endpoint) handleResponse(resp *jsonrpc.Response) {
	id, ok := resp.ID.Int64()
	if !ok {
		e.log.Warn("Discarding response with non-integer id", "id", resp.ID.String())

		return
	}

	call := e.take(id)
	if call == nil {
		// Already timed out, or never ours.
		e.log.Debug("No pending call for response", "id", id)

		return
	}

	call.stopTimer()

	if resp.Error != nil {
		e.log.Debug("Received error response", "id", id, "method", call.method, "code", resp.Error.Code)
		call.resolve(nil, resp.Error)

		return
	}

	e.log.Debug("Received response", "id", id, "method", call.method)
	call.resolve(resp.Result, nil)
}

// handleRequest serves a peer-initiated request and always answers it.
func (e *Endpoint) handleRequest(ctx context.Context, req *jsonrpc.Request) {
	e.log.Debug("Received request from peer", "id", req.ID.String(), "method", req.Method)

	handler, exists := e.registry.request(req.Method)
	if !exists {
		e.log.Warn("No handler registered for request", "method", req.Method)
		e.respond(ctx, req.ID, nil,
			errors.NewResponseError(errors.CodeMethodNotFound, "method not found: %s", req.Method))

		return
	}

	result, rpcErr := e.invokeRequest(ctx, req.Method, handler, req.Params)
	e.respond(ctx, req.ID, result, rpcErr)
}

func (e *Endpoint) invokeRequest(
	ctx context.Context,
	method string,
	handler RequestHandler,
	params json.RawMessage,
) (result any, rpcErr *errors.ResponseError) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Request handler panicked", "method", method, "panic", r)

			result = nil
			rpcErr = toResponseError(&errors.HandlerError{Method: method, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	result, err := handler(ctx, params)

	if ctx.Err() != nil {
		e.log.Debug("Handler was cancelled", "method", method)

		return nil, errors.NewResponseError(errors.CodeRequestCancelled, "request cancelled: endpoint stopping")
	}

	if err != nil {
		e.log.Warn("Handler returned error", "method", method, "error", err)

		return nil, toResponseError(&errors.HandlerError{Method: method, Err: err})
	}

	return result, nil
}

// toResponseError converts a handler failure into the error object sent to the peer.
func toResponseError(herr *errors.HandlerError) *errors.ResponseError {
	if rerr, ok := stderrors.AsType[*errors.ResponseError](herr.Err); ok {
		return rerr
	}

	return &errors.ResponseError{Code: errors.CodeInternalError, Message: herr.Error()}
}

// handleNotification runs the notification handler, if any. Nothing is sent back.
func (e *Endpoint) handleNotification(ctx context.Context, note *jsonrpc.Notification) {
	handler, exists := e.registry.notification(note.Method)
	if !exists {
		e.log.Debug("No handler registered for notification, discarding", "method", note.Method)

		return
	}

	e.log.Debug("Received notification from peer", "method", note.Method)

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Notification handler panicked", "method", note.Method, "panic", r)
		}
	}()

	if err := handler(ctx, note.Params); err != nil {
		e.log.Warn("Notification handler returned error", "method", note.Method, "error", err)
	}
}

// respond sends the response to a peer-initiated request.
// Only the dispatch loop calls it, and only with ids the peer sent.
func (e *Endpoint) respond(ctx context.Context, id jsonrpc.ID, result any, rpcErr *errors.ResponseError) {
	resp, err := jsonrpc.NewResponse(id, result, rpcErr)
	if err != nil {
		e.log.Error("Failed to marshal handler result", "id", id.String(), "error", err)

		resp, _ = jsonrpc.NewResponse(id, nil,
			errors.NewResponseError(errors.CodeInternalError, "marshal result: %v", err))
	}

	data, err := jsonrpc.Encode(resp)
	if err != nil {
		e.log.Error("Failed to encode response", "id", id.String(), "error", err)

		return
	}

	if err := e.transport.SendMessage(ctx, data); err != nil {
		// Don't log error if context was cancelled (expected during shutdown)
		if ctx.Err() != nil {
			e.log.Debug("Could not send response during shutdown", "id", id.String(), "error", err)

			return
		}

		e.log.Error("Failed to send response", "id", id.String(), "error", err)
	}
}
