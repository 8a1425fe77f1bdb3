package protocol

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/wagiedev/lsp-client-go/internal/errors"
	"github.com/wagiedev/lsp-client-go/internal/jsonrpc"
)

// Transport defines the minimal interface needed for protocol operations.
//
// ReadMessages is called exactly once, by the dispatch loop. Closing the
// message channel signals end of stream; a value on the error channel is a
// fatal transport fault. SendMessage must be safe for concurrent use.
type Transport interface {
	ReadMessages(ctx context.Context) (<-chan []byte, <-chan error)
	SendMessage(ctx context.Context, data []byte) error
}

// State is the lifecycle state of an Endpoint. Transitions only move forward.
type State int32

const (
	StateNew State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config holds construction-time settings for an Endpoint.
type Config struct {
	// RequestHandlers and NotificationHandlers are copied into the endpoint's
	// registry; the maps are not retained.
	RequestHandlers      map[string]RequestHandler
	NotificationHandlers map[string]NotificationHandler

	// RequestTimeout is the default deadline for outgoing calls.
	// Zero means calls wait until answered or until the endpoint stops.
	RequestTimeout time.Duration

	// SendRateLimit throttles outgoing requests and notifications, in
	// messages per second. Zero disables throttling.
	SendRateLimit float64

	// SendBurst is the limiter burst size. Defaults to 1.
	SendBurst int
}

// CallOption configures a single outgoing call.
type CallOption func(*callOptions)

type callOptions struct {
	timeout time.Duration
}

// WithTimeout sets the call's local deadline, overriding the endpoint
// default. A non-positive duration disables the deadline.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = d
	}
}

// Endpoint is a bidirectional JSON-RPC endpoint.
//
// The Endpoint handles:
//   - Assigning monotonically increasing ids to outgoing requests
//   - Correlating responses with pending calls, in any arrival order
//   - Serving peer-initiated requests and notifications from the Registry
//   - Local deadlines and advisory cancellation
//   - Resolving every pending call when the stream ends or Stop is called
//
// A single goroutine, started by Start, is the only reader of the transport.
type Endpoint struct {
	log            *slog.Logger
	id             string
	transport      Transport
	registry       *Registry
	defaultTimeout time.Duration
	limiter        *rate.Limiter

	nextID atomic.Int64
	state  atomic.Int32

	// Correlation table. Once closedErr is set no new calls are admitted.
	pendingMu sync.Mutex
	pending   map[int64]*Call
	closedErr error

	// Fatal error handling - stores error and broadcasts via done channel
	errMu    sync.RWMutex
	fatalErr error

	// Lifecycle management
	lifecycleMu sync.Mutex
	cancelLoop  context.CancelFunc
	closeOnce   sync.Once
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewEndpoint creates a new endpoint.
//
// The logger will receive debug, info, warn, and error messages during
// protocol operations. The transport must be connected before calling Start.
func NewEndpoint(log *slog.Logger, transport Transport, cfg *Config) *Endpoint {
	if cfg == nil {
		cfg = &Config{}
	}

	id := ulid.Make().String()

	e := &Endpoint{
		log:            log.With("component", "endpoint", "endpoint_id", id),
		id:             id,
		transport:      transport,
		registry:       NewRegistry(),
		defaultTimeout: cfg.RequestTimeout,
		pending:        make(map[int64]*Call, 10),
		done:           make(chan struct{}),
	}

	// Fresh maps cannot collide, so registration cannot fail here.
	maps.Copy(e.registry.requests, cfg.RequestHandlers)
	maps.Copy(e.registry.notifications, cfg.NotificationHandlers)

	if cfg.SendRateLimit > 0 {
		burst := max(cfg.SendBurst, 1)
		e.limiter = rate.NewLimiter(rate.Limit(cfg.SendRateLimit), burst)
	}

	return e
}

// ID returns the endpoint's unique instance id, as used in its log records.
func (e *Endpoint) ID() string { return e.id }

// State returns the current lifecycle state.
func (e *Endpoint) State() State { return State(e.state.Load()) }

// Registry returns the handler registry.
func (e *Endpoint) Registry() *Registry { return e.registry }

// Pending returns the number of calls awaiting a response.
func (e *Endpoint) Pending() int {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	return len(e.pending)
}

// closeDone safely closes the done channel exactly once.
func (e *Endpoint) closeDone() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}

// SetFatalError stores a fatal error and broadcasts to all waiters by closing done.
func (e *Endpoint) SetFatalError(err error) {
	e.errMu.Lock()

	if e.fatalErr == nil {
		e.fatalErr = err
	}

	e.errMu.Unlock()

	e.closeDone()
}

// FatalError returns the fatal error if one occurred.
func (e *Endpoint) FatalError() error {
	e.errMu.RLock()
	defer e.errMu.RUnlock()

	return e.fatalErr
}

// Done returns a channel that is closed when the endpoint stops, for any reason.
func (e *Endpoint) Done() <-chan struct{} {
	return e.done
}

// Start begins reading from the transport and dispatching messages.
//
// The dispatch loop runs until the stream ends, the transport fails, ctx is
// cancelled, or Stop is called. Start may only be called once.
func (e *Endpoint) Start(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if !e.state.CompareAndSwap(int32(StateNew), int32(StateRunning)) {
		if e.State() == StateRunning {
			return errors.ErrEndpointAlreadyStarted
		}

		return errors.ErrEndpointStopped
	}

	e.log.Debug("Starting endpoint")

	loopCtx, cancel := context.WithCancel(ctx)
	e.cancelLoop = cancel

	messages, errs := e.transport.ReadMessages(loopCtx)

	e.wg.Add(1)

	go e.readLoop(loopCtx, messages, errs)

	e.log.Info("Endpoint started")

	return nil
}

// Stop shuts the endpoint down.
//
// It signals the dispatch loop, cancels the context passed to any running
// handler, waits for the loop to exit, and resolves every pending call with
// ErrEndpointStopped. When Stop returns no call is left pending. It's safe to
// call Stop multiple times, and before Start.
func (e *Endpoint) Stop() {
	e.log.Debug("Stopping endpoint")

	e.lifecycleMu.Lock()

	if !e.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		e.state.CompareAndSwap(int32(StateNew), int32(StateStopping))
	}

	cancel := e.cancelLoop

	e.lifecycleMu.Unlock()

	e.closeDone()

	if cancel != nil {
		cancel()
	}

	e.wg.Wait()
	e.failPending(errors.ErrEndpointStopped)
	e.state.Store(int32(StateStopped))

	e.log.Info("Endpoint stopped")
}

// Go sends a request and returns its handle without waiting.
//
// If the endpoint is not running, or the request cannot be encoded or sent,
// the returned Call is already resolved with the error.
func (e *Endpoint) Go(ctx context.Context, method string, params any, opts ...CallOption) *Call {
	o := callOptions{timeout: e.defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	if err := e.checkRunning(); err != nil {
		return failedCall(method, err)
	}

	if err := e.throttle(ctx); err != nil {
		return failedCall(method, err)
	}

	id := e.nextID.Add(1) - 1

	req, err := jsonrpc.NewRequest(jsonrpc.Int64ID(id), method, params)
	if err != nil {
		return failedCall(method, err)
	}

	data, err := jsonrpc.Encode(req)
	if err != nil {
		return failedCall(method, err)
	}

	call := newCall(e, id, method)

	if err := e.register(call, o.timeout); err != nil {
		call.resolve(nil, err)

		return call
	}

	e.log.Debug("Sending request", "id", id, "method", method)

	if err := e.transport.SendMessage(ctx, data); err != nil {
		e.log.Error("Failed to send request", "id", id, "method", method, "error", err)

		if pending := e.take(id); pending != nil {
			pending.resolve(nil, fmt.Errorf("send request: %w", err))
		}
	}

	return call
}

// Call sends a request, waits for the response, and unmarshals the result
// into result. A nil result discards the payload.
func (e *Endpoint) Call(ctx context.Context, method string, params, result any, opts ...CallOption) error {
	return e.Go(ctx, method, params, opts...).Decode(ctx, result)
}

// Notify sends a notification. No response is expected; only transport
// errors are reported.
func (e *Endpoint) Notify(ctx context.Context, method string, params any) error {
	if err := e.checkRunning(); err != nil {
		return err
	}

	if err := e.throttle(ctx); err != nil {
		return err
	}

	note, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return err
	}

	data, err := jsonrpc.Encode(note)
	if err != nil {
		return err
	}

	e.log.Debug("Sending notification", "method", method)

	if err := e.transport.SendMessage(ctx, data); err != nil {
		e.log.Error("Failed to send notification", "method", method, "error", err)

		return fmt.Errorf("send notification: %w", err)
	}

	return nil
}

// Cancel sends an advisory $/cancelRequest for a previously issued request.
//
// The pending call is not removed. The peer may still answer normally, answer
// with a RequestCancelled error, or not answer at all; the call is resolved by
// whichever of response, deadline, or shutdown happens first.
func (e *Endpoint) Cancel(ctx context.Context, id int64) error {
	e.log.Debug("Cancelling request", "id", id)

	return e.Notify(ctx, jsonrpc.CancelRequestMethod, map[string]int64{"id": id})
}

// RegisterRequestHandler registers a handler for requests from the peer.
// Returns ErrHandlerExists if method already has a handler.
func (e *Endpoint) RegisterRequestHandler(method string, handler RequestHandler) error {
	e.log.Debug("Registering request handler", "method", method)

	return e.registry.RegisterRequest(method, handler)
}

// RegisterNotificationHandler registers a handler for notifications from the peer.
// Returns ErrHandlerExists if method already has a handler.
func (e *Endpoint) RegisterNotificationHandler(method string, handler NotificationHandler) error {
	e.log.Debug("Registering notification handler", "method", method)

	return e.registry.RegisterNotification(method, handler)
}

func (e *Endpoint) checkRunning() error {
	switch e.State() {
	case StateRunning:
		return nil
	case StateNew:
		return errors.ErrEndpointNotStarted
	default:
		return errors.ErrEndpointStopped
	}
}

func (e *Endpoint) throttle(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	return nil
}

// register adds call to the correlation table and arms its deadline.
func (e *Endpoint) register(call *Call, timeout time.Duration) error {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	if e.closedErr != nil {
		if stderrors.Is(e.closedErr, errors.ErrEndpointStopped) {
			return e.closedErr
		}

		return fmt.Errorf("%w: %w", errors.ErrEndpointStopped, e.closedErr)
	}

	if timeout > 0 {
		call.deadline = call.createdAt.Add(timeout)
		call.timer = time.AfterFunc(timeout, func() {
			e.expire(call.id, timeout)
		})
	}

	e.pending[call.id] = call

	return nil
}

// take removes and returns the pending call for id, or nil if there is none.
// Whoever takes a call owns its resolution.
func (e *Endpoint) take(id int64) *Call {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	call, ok := e.pending[id]
	if !ok {
		return nil
	}

	delete(e.pending, id)

	return call
}

func (e *Endpoint) expire(id int64, timeout time.Duration) {
	call := e.take(id)
	if call == nil {
		return
	}

	e.log.Warn("Request timed out", "id", id, "method", call.method, "timeout", timeout)

	call.resolve(nil, fmt.Errorf("%w after %s", errors.ErrRequestTimeout, timeout))
}

// failPending closes the correlation table and resolves every pending call with err.
func (e *Endpoint) failPending(err error) {
	e.pendingMu.Lock()

	if e.closedErr == nil {
		e.closedErr = err
	}

	calls := e.pending
	e.pending = make(map[int64]*Call)

	e.pendingMu.Unlock()

	if len(calls) == 0 {
		return
	}

	e.log.Debug("Resolving pending calls", "count", len(calls), "error", err)

	for _, call := range calls {
		call.stopTimer()
		call.resolve(nil, err)
	}
}
