package client

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/lsp-client-go/internal/config"
	"github.com/wagiedev/lsp-client-go/internal/errors"
	"github.com/wagiedev/lsp-client-go/internal/lsp"
	"github.com/wagiedev/lsp-client-go/internal/mcpconn"
	"github.com/wagiedev/lsp-client-go/internal/protocol"
	"github.com/wagiedev/lsp-client-go/internal/subprocess"
)

// shutdownTimeout bounds the shutdown request and the wait for the server to
// exit on its own before it is killed.
const shutdownTimeout = 5 * time.Second

// Client implements the language server client.
type Client struct {
	log       *slog.Logger
	transport config.Transport
	endpoint  *protocol.Endpoint
	server    *lsp.Server
	progress  *lsp.ProgressTracker
	options   *config.Options

	// Fatal error storage
	errMu    sync.RWMutex
	fatalErr error

	// Errgroup for goroutine management
	eg *errgroup.Group

	// Lifecycle management
	mu        sync.Mutex
	done      chan struct{}
	connected bool
	closed    bool      // Tracks if Close() has been called
	closeOnce sync.Once // Ensures Close() only runs once
}

// New creates a new client.
//
// The client is not connected after creation. Call Start() with options to connect.
func New() *Client {
	return &Client{
		progress: lsp.NewProgressTracker(),
		done:     make(chan struct{}),
	}
}

// setFatalError stores the first fatal error encountered.
func (c *Client) setFatalError(err error) {
	if err == nil {
		return
	}

	c.errMu.Lock()
	defer c.errMu.Unlock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}
}

// Err returns the fatal error that ended the connection, if any.
func (c *Client) Err() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// isConnected returns true if the client is connected.
// This method is safe to call from any goroutine.
func (c *Client) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

// newTransport picks the transport for options.
func (c *Client) newTransport(options *config.Options) config.Transport {
	switch {
	case options.Transport != nil:
		c.log.Debug("Using injected custom transport")

		return options.Transport
	case options.Framing == mcpconn.Framing:
		c.log.Debug("Using MCP command transport")

		return mcpconn.NewCommandTransport(c.log, options)
	default:
		return subprocess.NewServerTransport(c.log, options)
	}
}

// handlers merges the built-in LSP handlers with the user's. User handlers
// win for the same method.
func (c *Client) handlers(
	options *config.Options,
) (map[string]protocol.RequestHandler, map[string]protocol.NotificationHandler, error) {
	requests, notifications, err := lsp.Handlers(&lsp.HandlerConfig{
		Logger:        c.log,
		Settings:      options.Settings,
		OnDiagnostics: options.OnDiagnostics,
		OnLogMessage:  options.OnLogMessage,
		Progress:      c.progress,
	})
	if err != nil {
		return nil, nil, err
	}

	maps.Copy(requests, options.RequestHandlers)
	maps.Copy(notifications, options.NotificationHandlers)

	return requests, notifications, nil
}

// initializeCore performs common client initialization.
// Caller must hold c.mu lock. Lock is held on return.
func (c *Client) initializeCore(ctx context.Context, options *config.Options) error {
	// Default to empty options if nil
	if options == nil {
		options = &config.Options{}
	}

	// Extract logger from options, defaulting to a no-op logger
	log := options.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	c.log = log.With("component", "client")
	c.options = options

	requests, notifications, err := c.handlers(options)
	if err != nil {
		return err
	}

	transport := c.newTransport(options)
	if err := transport.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	c.transport = transport

	// The endpoint outlives the caller's ctx, which may only bound startup.
	c.endpoint = protocol.NewEndpoint(c.log, transport, &protocol.Config{
		RequestHandlers:      requests,
		NotificationHandlers: notifications,
		RequestTimeout:       options.RequestTimeout,
		SendRateLimit:        options.SendRateLimit,
		SendBurst:            options.SendBurst,
	})

	if err := c.endpoint.Start(context.WithoutCancel(ctx)); err != nil {
		_ = transport.Close()

		return fmt.Errorf("start endpoint: %w", err)
	}

	c.server = lsp.NewServer(c.log, c.endpoint, options.GetInitializeTimeout())

	if err := c.handshake(ctx, options); err != nil {
		c.endpoint.Stop()
		_ = transport.Close()

		if ferr := c.endpoint.FatalError(); ferr != nil {
			return fmt.Errorf("initialize server: %w (%w)", err, ferr)
		}

		return fmt.Errorf("initialize server: %w", err)
	}

	return nil
}

// handshake runs initialize followed by initialized.
func (c *Client) handshake(ctx context.Context, options *config.Options) error {
	params := &lsp.InitializeParams{
		InitializationOptions: options.InitializationOptions,
	}

	if options.RootURI != "" {
		root := options.RootURI
		params.RootURI = &root
		params.WorkspaceFolders = []lsp.WorkspaceFolder{{URI: root, Name: path.Base(string(root))}}
	}

	if _, err := c.server.Initialize(ctx, params); err != nil {
		return err
	}

	return c.server.Initialized(ctx)
}

// Start launches the language server and performs the initialize handshake.
//
// Returns ServerNotFoundError if the server binary cannot be located,
// or ConnectionError if the process fails to start.
func (c *Client) Start(ctx context.Context, options *config.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.ErrClientClosed
	}

	if c.connected {
		return errors.ErrClientAlreadyConnected
	}

	if err := c.initializeCore(ctx, options); err != nil {
		return err
	}

	// The errgroup runs on context.Background(): the caller's ctx may only
	// bound startup, and c.done signals shutdown explicitly.
	var egCtx context.Context

	c.eg, egCtx = errgroup.WithContext(context.Background())

	c.eg.Go(func() error {
		return c.monitor(egCtx)
	})

	c.connected = true
	c.log.Info("Client started successfully")

	return nil
}

// monitor waits for the endpoint to stop and records why.
func (c *Client) monitor(ctx context.Context) error {
	defer c.log.Debug("Monitor stopped")

	select {
	case <-c.endpoint.Done():
		if err := c.endpoint.FatalError(); err != nil {
			c.log.Error("Connection to language server lost", "error", err)
			c.setFatalError(err)

			return err
		}

		c.log.Debug("Endpoint stopped")

		return nil

	case <-c.done:
		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Server returns the typed LSP wrapper, or nil before Start.
func (c *Client) Server() *lsp.Server {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.server
}

// InitializeResult returns the server's capabilities and info from the
// handshake, or nil if not connected.
func (c *Client) InitializeResult() *lsp.InitializeResult {
	server := c.Server()
	if server == nil {
		return nil
	}

	return server.InitializeResult()
}

// Go sends a raw request and returns its handle without waiting.
func (c *Client) Go(ctx context.Context, method string, params any, opts ...protocol.CallOption) (*protocol.Call, error) {
	if !c.isConnected() {
		return nil, errors.ErrClientNotConnected
	}

	return c.endpoint.Go(ctx, method, params, opts...), nil
}

// Call sends a raw request and decodes its result into result.
func (c *Client) Call(ctx context.Context, method string, params, result any, opts ...protocol.CallOption) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	return c.endpoint.Call(ctx, method, params, result, opts...)
}

// Notify sends a raw notification.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	return c.endpoint.Notify(ctx, method, params)
}

// Cancel asks the server to abandon the request with the given id.
func (c *Client) Cancel(ctx context.Context, id int64) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	return c.endpoint.Cancel(ctx, id)
}

// RegisterRequestHandler adds a handler for a server-initiated request.
func (c *Client) RegisterRequestHandler(method string, handler protocol.RequestHandler) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	return c.endpoint.RegisterRequestHandler(method, handler)
}

// RegisterNotificationHandler adds a handler for a server notification.
func (c *Client) RegisterNotificationHandler(method string, handler protocol.NotificationHandler) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	return c.endpoint.RegisterNotificationHandler(method, handler)
}

// Pending returns the number of requests awaiting a response.
func (c *Client) Pending() int {
	if !c.isConnected() {
		return 0
	}

	return c.endpoint.Pending()
}

// Progress returns the server's unfinished work-done progress.
func (c *Client) Progress() []lsp.Progress {
	return c.progress.Active()
}

// Done returns a channel that is closed when the connection ends, either
// through Close or because the server went away.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.endpoint == nil {
		return c.done
	}

	return c.endpoint.Done()
}

// shutdown asks the server to exit cleanly, then gives it until the
// timeout to close its end of the stream.
func (c *Client) shutdown() {
	select {
	case <-c.endpoint.Done():
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := c.server.Shutdown(ctx); err != nil {
		c.log.Warn("Shutdown request failed", "error", err)

		return
	}

	if err := c.server.Exit(ctx); err != nil {
		c.log.Warn("Exit notification failed", "error", err)

		return
	}

	if err := c.transport.EndInput(); err != nil {
		c.log.Debug("End input failed", "error", err)
	}

	select {
	case <-c.endpoint.Done():
	case <-ctx.Done():
		c.log.Warn("Language server did not exit in time")
	}
}

// Close shuts the server down and cleans up resources.
//
// After Close(), the client cannot be reused - create a new client with New().
// This method is safe to call multiple times.
func (c *Client) Close() error {
	var closeErr error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		wasConnected := c.connected
		c.connected = false
		c.mu.Unlock()

		if !wasConnected {
			return
		}

		c.log.Info("Closing client")

		c.shutdown()

		// Signal shutdown
		close(c.done)

		c.endpoint.Stop()

		if c.transport != nil {
			closeErr = c.transport.Close()
		}

		// Wait for errgroup goroutines to complete
		if c.eg != nil {
			if err := c.eg.Wait(); err != nil && closeErr == nil {
				closeErr = err
			}
		}

		c.log.Info("Client closed")
	})

	return closeErr
}
