package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wagiedev/lsp-client-go/internal/errors"
)

// RequestHandler serves a request initiated by the peer.
//
// The returned value is marshaled as the response result. A returned
// *errors.ResponseError is sent to the peer unchanged; any other error is sent
// as an InternalError response carrying the error text.
//
// Handlers run on the dispatch loop: no other inbound message is processed
// until the handler returns. Long work must be handed off to another goroutine.
// The context is cancelled when the endpoint stops.
type RequestHandler func(ctx context.Context, params json.RawMessage) (any, error)

// NotificationHandler handles a notification from the peer. Errors are
// logged; notifications are never answered.
type NotificationHandler func(ctx context.Context, params json.RawMessage) error

// Registry maps method names to handlers.
//
// Each method has at most one handler of each kind. Registering a method that
// already has a handler fails with ErrHandlerExists; unregister first to
// replace it. The registry is safe for concurrent use, so handlers may be
// registered while the dispatch loop is running.
type Registry struct {
	mu            sync.RWMutex
	requests      map[string]RequestHandler
	notifications map[string]NotificationHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		requests:      make(map[string]RequestHandler, 10),
		notifications: make(map[string]NotificationHandler, 10),
	}
}

// RegisterRequest binds handler to method.
func (r *Registry) RegisterRequest(method string, handler RequestHandler) error {
	if method == "" || handler == nil {
		return fmt.Errorf("register request handler: method and handler are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[method]; exists {
		return fmt.Errorf("%w: request %q", errors.ErrHandlerExists, method)
	}

	r.requests[method] = handler

	return nil
}

// RegisterNotification binds handler to method.
func (r *Registry) RegisterNotification(method string, handler NotificationHandler) error {
	if method == "" || handler == nil {
		return fmt.Errorf("register notification handler: method and handler are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notifications[method]; exists {
		return fmt.Errorf("%w: notification %q", errors.ErrHandlerExists, method)
	}

	r.notifications[method] = handler

	return nil
}

// UnregisterRequest removes the request handler for method and reports
// whether one was registered.
func (r *Registry) UnregisterRequest(method string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.requests[method]
	delete(r.requests, method)

	return exists
}

// UnregisterNotification removes the notification handler for method and
// reports whether one was registered.
func (r *Registry) UnregisterNotification(method string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.notifications[method]
	delete(r.notifications, method)

	return exists
}

func (r *Registry) request(method string) (RequestHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.requests[method]

	return h, ok
}

func (r *Registry) notification(method string) (NotificationHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.notifications[method]

	return h, ok
}
