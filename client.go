package lspclient

import "context"

// Client drives one language server session.
//
// Start launches the server (or connects through an injected Transport) and
// completes the initialize handshake. Requests can then be issued through the
// typed LSP wrappers returned by LSP, or as raw JSON-RPC with Go and Call.
//
// Lifecycle: Clients are single-use. After Close(), create a new client with NewClient().
//
// Example usage:
//
//	client := lspclient.NewClient()
//	defer client.Close()
//
//	err := client.Start(ctx,
//	    lspclient.WithCommand("gopls"),
//	    lspclient.WithRootURI("file:///src/app"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	symbols, err := client.LSP().DocumentSymbol(ctx, "file:///src/app/main.go")
type Client interface {
	// Start launches the server and performs initialize/initialized.
	// Must be called before any other methods.
	// Returns ServerNotFoundError if the server is not found, ConnectionError on failure.
	Start(ctx context.Context, opts ...Option) error

	// LSP returns the typed LSP request and notification wrappers.
	// Returns nil before Start.
	LSP() *LanguageServer

	// InitializeResult returns the server's capabilities and info.
	// Returns nil if not connected.
	InitializeResult() *InitializeResult

	// Go sends a raw request and returns its handle without waiting.
	Go(ctx context.Context, method string, params any, opts ...CallOption) (*Call, error)

	// Call sends a raw request and decodes its result into result.
	// A nil result discards the response body.
	Call(ctx context.Context, method string, params, result any, opts ...CallOption) error

	// Notify sends a raw notification.
	Notify(ctx context.Context, method string, params any) error

	// Cancel asks the server to abandon a request. Cancellation is advisory:
	// the call still resolves with whatever the server answers.
	Cancel(ctx context.Context, id int64) error

	// RegisterRequestHandler adds a handler for a server-initiated request.
	// Returns ErrHandlerExists if the method already has one.
	RegisterRequestHandler(method string, handler RequestHandler) error

	// RegisterNotificationHandler adds a handler for a server notification.
	// Returns ErrHandlerExists if the method already has one.
	RegisterNotificationHandler(method string, handler NotificationHandler) error

	// Pending returns the number of requests awaiting a response.
	Pending() int

	// Progress returns the server's unfinished work-done progress.
	Progress() []Progress

	// Done is closed when the connection ends.
	Done() <-chan struct{}

	// Err returns the fatal transport or process error, if any.
	Err() error

	// Close sends shutdown and exit, then releases the transport.
	// After Close(), the client cannot be reused. Safe to call multiple times.
	Close() error
}

// NewClient creates a new client.
//
// Call Start() with options to begin a session:
//
//	client := NewClient()
//	err := client.Start(ctx,
//	    WithLogger(slog.Default()),
//	    WithCommand("gopls"),
//	)
func NewClient() Client {
	return newClientImpl()
}
