// Package config provides configuration types for the LSP client.
package config

import "context"

// Transport defines the interface for language server communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods (e.g., a socket to a running server).
//
// The default implementation is ServerTransport which spawns a subprocess.
// Custom transports can be injected via Options.Transport.
type Transport interface {
	// Start initializes the transport and prepares it for communication.
	// This is called before any messages are sent or received.
	Start(ctx context.Context) error

	// ReadMessages returns channels for receiving messages and errors.
	// The message channel yields one JSON-RPC message body per frame.
	// The error channel yields a fatal read or process error, if any.
	// Both channels are closed when reading completes.
	ReadMessages(ctx context.Context) (<-chan []byte, <-chan error)

	// SendMessage frames and sends one JSON-RPC message body.
	// This method must be safe for concurrent use.
	SendMessage(ctx context.Context, data []byte) error

	// Close terminates the transport and releases resources.
	// It's safe to call Close multiple times.
	Close() error

	// IsReady returns true if the transport is ready for communication.
	IsReady() bool

	// EndInput signals that no more input will be sent.
	// For process-based transports, this typically closes stdin.
	EndInput() error
}
