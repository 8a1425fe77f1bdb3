package mcpconn

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/lsp-client-go/internal/config"
	"github.com/wagiedev/lsp-client-go/internal/errors"
	"github.com/wagiedev/lsp-client-go/internal/server"
	"github.com/wagiedev/lsp-client-go/internal/stream"
)

// Framing selects this transport in Options.Framing.
const Framing stream.Framing = "mcp"

// terminateDuration is how long the SDK waits for the process to exit after
// closing its stdin, before killing it.
const terminateDuration = 5 * time.Second

// Transport implements config.Transport over an mcp.Transport.
type Transport struct {
	log       *slog.Logger
	transport mcp.Transport

	mu      sync.Mutex // Protects conn and closed
	conn    mcp.Connection
	closed  bool
	writeMu sync.Mutex
}

// Compile-time verification that Transport implements the Transport interface.
var _ config.Transport = (*Transport)(nil)

// New wraps transport. The connection is made by Start.
func New(log *slog.Logger, transport mcp.Transport) *Transport {
	return &Transport{
		log:       log.With("component", "mcp_transport"),
		transport: transport,
	}
}

// NewCommandTransport returns a Transport that runs options.Command as a
// newline-delimited JSON-RPC server through mcp.CommandTransport.
func NewCommandTransport(log *slog.Logger, options *config.Options) *Transport {
	return New(log, &commandTransport{log: log, options: options})
}

// commandTransport defers discovery and process setup to Connect, so a
// missing binary is reported by Start like the other transports.
type commandTransport struct {
	log     *slog.Logger
	options *config.Options
}

func (c *commandTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	path, err := server.NewDiscoverer(server.ConfigFromOptions(c.log, c.options)).Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover server: %w", err)
	}

	env, err := server.BuildEnvironment(c.options)
	if err != nil {
		return nil, &errors.ConnectionError{Err: fmt.Errorf("build environment: %w", err)}
	}

	//nolint:gosec // G204: Subprocess launching with dynamic args is expected for server invocation
	cmd := exec.Command(path, c.options.Args...)
	cmd.Dir = c.options.Cwd
	cmd.Env = env
	cmd.Stderr = stderrWriter(c.options.Stderr)

	transport := &mcp.CommandTransport{
		Command:           cmd,
		TerminateDuration: terminateDuration,
	}

	conn, err := transport.Connect(ctx)
	if err != nil {
		return nil, &errors.ConnectionError{Err: fmt.Errorf("start process: %w", err)}
	}

	return conn, nil
}

// Start connects the underlying transport.
func (t *Transport) Start(ctx context.Context) error {
	t.log.Info("Connecting MCP transport")

	conn, err := t.transport.Connect(ctx)
	if err != nil {
		t.log.Error("Failed to connect MCP transport", "error", err)

		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	return nil
}

// ReadMessages reads decoded messages from the connection and re-encodes
// each one for the endpoint. End of input closes the channels cleanly, as
// does any read failure after Close.
func (t *Transport) ReadMessages(ctx context.Context) (<-chan []byte, <-chan error) {
	messages := make(chan []byte)
	errs := make(chan error, 1)

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	go func() {
		defer close(messages)
		defer close(errs)
		defer t.log.Debug("ReadMessages goroutine stopped")

		if conn == nil {
			errs <- errors.ErrTransportNotConnected

			return
		}

		for {
			msg, err := conn.Read(ctx)
			if err != nil {
				if t.isClosed() || stderrors.Is(err, io.EOF) {
					t.log.Debug("End of stream", "error", err)

					return
				}

				errs <- fmt.Errorf("read message: %w", err)

				return
			}

			data, err := jsonrpc.EncodeMessage(msg)
			if err != nil {
				t.log.Warn("Failed to re-encode message", "error", err)

				continue
			}

			select {
			case messages <- data:
			case <-ctx.Done():
				errs <- ctx.Err()

				return
			}
		}
	}()

	return messages, errs
}

// SendMessage decodes data into an SDK message and writes it.
// This method is safe for concurrent use.
func (t *Transport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	conn, closed := t.conn, t.closed
	t.mu.Unlock()

	if conn == nil {
		return errors.ErrTransportNotConnected
	}

	if closed {
		return errors.ErrStdinClosed
	}

	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		return fmt.Errorf("decode outgoing message: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := conn.Write(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// IsReady returns true if the connection is open.
func (t *Transport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conn != nil && !t.closed
}

// EndInput closes the connection. SDK connections have no separate write
// half; for a command this closes stdin and waits for the process to exit.
func (t *Transport) EndInput() error {
	return t.Close()
}

// Close closes the connection. It's safe to call Close multiple times.
func (t *Transport) Close() error {
	t.mu.Lock()

	if t.closed || t.conn == nil {
		t.closed = true
		t.mu.Unlock()

		return nil
	}

	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	t.log.Debug("Closing MCP connection")

	if err := conn.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}

	return nil
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

// stderrWriter forwards process stderr to fn line by line, or discards it.
func stderrWriter(fn func(string)) io.Writer {
	if fn == nil {
		return io.Discard
	}

	return &lineWriter{fn: fn}
}

type lineWriter struct {
	mu  sync.Mutex
	buf []byte
	fn  func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		w.fn(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}
