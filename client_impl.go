package lspclient

import (
	"context"

	"github.com/wagiedev/lsp-client-go/internal/client"
	"github.com/wagiedev/lsp-client-go/internal/lsp"
)

// clientWrapper wraps the internal client to adapt it to the public interface.
type clientWrapper struct {
	impl *client.Client
}

// Compile-time check that *clientWrapper implements the Client interface.
var _ Client = (*clientWrapper)(nil)

// newClientImpl creates the internal client implementation.
func newClientImpl() Client {
	return &clientWrapper{impl: client.New()}
}

// Start launches the server and performs the initialize handshake.
func (c *clientWrapper) Start(ctx context.Context, opts ...Option) error {
	return c.impl.Start(ctx, applyOptions(opts))
}

// LSP returns the typed LSP wrappers.
func (c *clientWrapper) LSP() *lsp.Server {
	return c.impl.Server()
}

// InitializeResult returns the server's capabilities and info.
func (c *clientWrapper) InitializeResult() *lsp.InitializeResult {
	return c.impl.InitializeResult()
}

// Go sends a raw request without waiting.
func (c *clientWrapper) Go(ctx context.Context, method string, params any, opts ...CallOption) (*Call, error) {
	return c.impl.Go(ctx, method, params, opts...)
}

// Call sends a raw request and waits for its result.
func (c *clientWrapper) Call(ctx context.Context, method string, params, result any, opts ...CallOption) error {
	return c.impl.Call(ctx, method, params, result, opts...)
}

// Notify sends a raw notification.
func (c *clientWrapper) Notify(ctx context.Context, method string, params any) error {
	return c.impl.Notify(ctx, method, params)
}

// Cancel asks the server to abandon a request.
func (c *clientWrapper) Cancel(ctx context.Context, id int64) error {
	return c.impl.Cancel(ctx, id)
}

// RegisterRequestHandler adds a handler for a server-initiated request.
func (c *clientWrapper) RegisterRequestHandler(method string, handler RequestHandler) error {
	return c.impl.RegisterRequestHandler(method, handler)
}

// RegisterNotificationHandler adds a handler for a server notification.
func (c *clientWrapper) RegisterNotificationHandler(method string, handler NotificationHandler) error {
	return c.impl.RegisterNotificationHandler(method, handler)
}

// Pending returns the number of requests awaiting a response.
func (c *clientWrapper) Pending() int {
	return c.impl.Pending()
}

// Progress returns unfinished work-done progress.
func (c *clientWrapper) Progress() []lsp.Progress {
	return c.impl.Progress()
}

// Done is closed when the connection ends.
func (c *clientWrapper) Done() <-chan struct{} {
	return c.impl.Done()
}

// Err returns the fatal error, if any.
func (c *clientWrapper) Err() error {
	return c.impl.Err()
}

// Close shuts the session down.
func (c *clientWrapper) Close() error {
	return c.impl.Close()
}
