package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/lsp-client-go/internal/config"
	"github.com/wagiedev/lsp-client-go/internal/errors"
	"github.com/wagiedev/lsp-client-go/internal/server"
	"github.com/wagiedev/lsp-client-go/internal/stream"
)

// maxStderrBufferSize is the maximum size for the stderr buffer.
// Stderr reading continues indefinitely (callback receives all lines),
// but the buffer stops growing after this limit to prevent unbounded memory usage.
const maxStderrBufferSize = 1024 * 1024 // 1MB

// ServerTransport implements Transport by spawning a language server subprocess.
type ServerTransport struct {
	log            *slog.Logger
	options        *config.Options
	path           string
	cmd            *exec.Cmd
	conn           *stream.Conn
	stderr         io.ReadCloser
	stderrCallback func(string)

	mu      sync.Mutex // Protects cmd, conn, and closing
	closing bool       // Whether Close() has been called (intentional shutdown)

	stderrMu    sync.Mutex
	stderrBuf   strings.Builder
	stderrLimit int
}

// Compile-time verification that ServerTransport implements the Transport interface.
var _ config.Transport = (*ServerTransport)(nil)

// NewServerTransport creates a new transport for options.Command.
//
// The logger is used for operation tracking and debugging. It will receive
// debug, info, warn, and error messages during transport operations.
//
// Server discovery is deferred to Start(), which returns ServerNotFoundError
// if the binary cannot be located.
func NewServerTransport(log *slog.Logger, options *config.Options) *ServerTransport {
	if options == nil {
		options = &config.Options{}
	}

	return &ServerTransport{
		log:            log.With("component", "server_transport"),
		options:        options,
		stderrCallback: options.Stderr,
		stderrLimit:    maxStderrBufferSize,
	}
}

// Start starts the server subprocess.
//
// This method discovers the server binary, builds its environment, and spawns
// the process with stdin, stdout, and stderr pipes. The process is not tied to
// ctx; Close ends it.
//
// Returns ServerNotFoundError if the binary cannot be located,
// or ConnectionError if the process fails to start.
func (t *ServerTransport) Start(ctx context.Context) error {
	t.log.Info("Starting language server subprocess", "command", t.options.Command)

	path, err := server.NewDiscoverer(server.ConfigFromOptions(t.log, t.options)).Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover server: %w", err)
	}

	t.path = path

	env, err := server.BuildEnvironment(t.options)
	if err != nil {
		return &errors.ConnectionError{Err: fmt.Errorf("build environment: %w", err)}
	}

	cwd := t.options.Cwd
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	framer, err := stream.NewFramer(t.options.Framing, t.options.MaxFrameSize)
	if err != nil {
		return &errors.ConnectionError{Err: err}
	}

	//nolint:gosec // G204: Subprocess launching with dynamic args is expected for server invocation
	cmd := exec.Command(t.path, t.options.Args...)
	cmd.Dir = cwd
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.log.Error("Failed to create stdin pipe", "error", err)

		return &errors.ConnectionError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.log.Error("Failed to create stdout pipe", "error", err)

		return &errors.ConnectionError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		t.log.Error("Failed to create stderr pipe", "error", err)

		return &errors.ConnectionError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to start server process", "error", err)

		return &errors.ConnectionError{Err: fmt.Errorf("start process: %w", err)}
	}

	t.mu.Lock()
	t.cmd = cmd
	t.conn = stream.NewConn(t.log, stdout, stdin, framer)
	t.stderr = stderr
	t.mu.Unlock()

	t.log.Info("Language server subprocess started", "pid", cmd.Process.Pid, "path", t.path)

	return nil
}

// ReadMessages reads framed messages from the server stdout.
//
// Stdout frames are forwarded until end of stream, a framing error, or ctx
// cancellation. Stderr is drained concurrently into the callback and buffer.
// Once both are done the process is reaped: a non-zero exit is delivered as a
// ProcessError unless Close was called. Both channels are closed last.
func (t *ServerTransport) ReadMessages(ctx context.Context) (<-chan []byte, <-chan error) {
	messages := make(chan []byte)
	errs := make(chan error, 1)

	t.mu.Lock()
	conn, stderr := t.conn, t.stderr
	t.mu.Unlock()

	if conn == nil {
		errs <- errors.ErrTransportNotConnected

		close(errs)
		close(messages)

		return messages, errs
	}

	// Stderr reads must complete before Wait.
	// See: https://pkg.go.dev/os/exec#Cmd.StderrPipe
	var g errgroup.Group

	g.Go(func() error {
		t.pumpStderr(stderr)

		return nil
	})

	go func() {
		defer close(messages)
		defer close(errs)
		defer t.log.Debug("ReadMessages goroutine stopped")

		in, inErrs := conn.ReadMessages(ctx)

		readErr := forward(ctx, in, inErrs, messages)

		_ = g.Wait()

		if procErr := t.wait(); procErr != nil {
			errs <- procErr

			return
		}

		if readErr != nil {
			errs <- readErr
		}
	}()

	return messages, errs
}

// forward copies frames from in to out and returns the read error, if any.
func forward(ctx context.Context, in <-chan []byte, inErrs <-chan error, out chan<- []byte) error {
	for body := range in {
		select {
		case out <- body:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return <-inErrs
}

func (t *ServerTransport) pumpStderr(stderr io.Reader) {
	if stderr == nil {
		return
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()

		t.appendStderr(line)

		if t.stderrCallback != nil {
			t.stderrCallback(line)
		}
	}

	if err := scanner.Err(); err != nil {
		t.log.Debug("Stderr scanner error", "error", err)
	}
}

func (t *ServerTransport) appendStderr(line string) {
	t.stderrMu.Lock()
	defer t.stderrMu.Unlock()

	if t.stderrBuf.Len() >= t.stderrLimit {
		return
	}

	if t.stderrBuf.Len() > 0 {
		t.stderrBuf.WriteString("\n")
	}

	t.stderrBuf.WriteString(line)
}

// Stderr returns the captured stderr output, up to the buffer limit.
func (t *ServerTransport) Stderr() string {
	t.stderrMu.Lock()
	defer t.stderrMu.Unlock()

	return strings.TrimSpace(t.stderrBuf.String())
}

// wait reaps the process and converts an abnormal exit into a ProcessError.
func (t *ServerTransport) wait() error {
	t.log.Debug("Waiting for server process to exit")

	err := t.cmd.Wait()
	if err == nil {
		t.log.Info("Language server exited successfully")

		return nil
	}

	t.mu.Lock()
	isClosing := t.closing
	t.mu.Unlock()

	if isClosing {
		t.log.Debug("Language server terminated during shutdown")

		return nil
	}

	exitCode := -1
	if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
		exitCode = exitErr.ExitCode()
	}

	stderrOutput := t.Stderr()

	t.log.Error("Language server exited with error", "exit_code", exitCode, "stderr", stderrOutput)

	return &errors.ProcessError{
		ExitCode: exitCode,
		Stderr:   stderrOutput,
		Err:      err,
	}
}

// SendMessage frames and writes one message to the server stdin.
//
// This method is safe for concurrent use and respects context cancellation
// even during blocking writes.
func (t *ServerTransport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return errors.ErrTransportNotConnected
	}

	if err := conn.SendMessage(ctx, data); err != nil {
		if stderrors.Is(err, errors.ErrStdinClosed) || ctx.Err() != nil {
			return err
		}

		return fmt.Errorf("write to stdin: %w", err)
	}

	return nil
}

// IsReady returns true if the server process is running and stdin is open.
func (t *ServerTransport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cmd != nil && t.cmd.Process != nil && t.conn != nil && !t.closing
}

// EndInput closes stdin. A well-behaved server exits once it sees end of
// input after an exit notification.
func (t *ServerTransport) EndInput() error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	t.log.Debug("Closing stdin pipe")

	return conn.CloseWrite()
}

// Close terminates the server process.
//
// Stdin is closed and the process is killed. It's safe to call Close multiple
// times or on an already-terminated process.
func (t *ServerTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closing = true

	if t.conn != nil {
		_ = t.conn.CloseWrite()
	}

	if t.cmd != nil && t.cmd.Process != nil {
		t.log.Debug("Killing language server", "pid", t.cmd.Process.Pid)

		if err := t.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill server process (pid %d): %w", t.cmd.Process.Pid, err)
		}
	}

	return nil
}
