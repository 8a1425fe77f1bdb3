package subprocess

import (
	"context"
	stderrors "errors"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/lsp-client-go/internal/config"
	"github.com/wagiedev/lsp-client-go/internal/errors"
	"github.com/wagiedev/lsp-client-go/internal/stream"
)

func requireUnix(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires /bin/sh")
	}
}

// shellTransport starts a transport whose server is the given shell script.
func shellTransport(t *testing.T, script string, opts func(*config.Options)) *ServerTransport {
	t.Helper()
	requireUnix(t)

	options := &config.Options{
		Command: "/bin/sh",
		Args:    []string{"-c", script},
	}

	if opts != nil {
		opts(options)
	}

	transport := NewServerTransport(slog.Default(), options)
	require.NoError(t, transport.Start(context.Background()))

	t.Cleanup(func() { _ = transport.Close() })

	return transport
}

// drain collects every message and the first error until both channels close.
func drain(t *testing.T, messages <-chan []byte, errs <-chan error) ([]string, error) {
	t.Helper()

	var (
		bodies   []string
		firstErr error
	)

	timeout := time.After(5 * time.Second)

	for messages != nil || errs != nil {
		select {
		case body, ok := <-messages:
			if !ok {
				messages = nil

				continue
			}

			bodies = append(bodies, string(body))
		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if firstErr == nil {
				firstErr = err
			}
		case <-timeout:
			t.Fatal("transport channels were not closed")
		}
	}

	return bodies, firstErr
}

func TestServerTransport_EchoHeaderFraming(t *testing.T) {
	transport := shellTransport(t, "exec cat", nil)
	require.True(t, transport.IsReady())

	ctx := context.Background()
	messages, errs := transport.ReadMessages(ctx)

	require.NoError(t, transport.SendMessage(ctx, []byte(`{"jsonrpc":"2.0","id":0,"method":"initialize"}`)))
	require.NoError(t, transport.SendMessage(ctx, []byte(`{"jsonrpc":"2.0","method":"initialized"}`)))
	require.NoError(t, transport.EndInput())

	bodies, err := drain(t, messages, errs)
	require.NoError(t, err)
	require.Equal(t, []string{
		`{"jsonrpc":"2.0","id":0,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"initialized"}`,
	}, bodies)
}

func TestServerTransport_EchoLineFraming(t *testing.T) {
	transport := shellTransport(t, "exec cat", func(o *config.Options) {
		o.Framing = stream.FramingLine
	})

	ctx := context.Background()
	messages, errs := transport.ReadMessages(ctx)

	require.NoError(t, transport.SendMessage(ctx, []byte(`{"id":1}`)))
	require.NoError(t, transport.EndInput())

	bodies, err := drain(t, messages, errs)
	require.NoError(t, err)
	require.Equal(t, []string{`{"id":1}`}, bodies)
}

func TestServerTransport_ServerFramesParsed(t *testing.T) {
	script := `printf 'Content-Length: 19\r\n\r\n{"id":0,"result":1}'`
	transport := shellTransport(t, script, nil)

	messages, errs := transport.ReadMessages(context.Background())

	bodies, err := drain(t, messages, errs)
	require.NoError(t, err)
	require.Equal(t, []string{`{"id":0,"result":1}`}, bodies)
}

func TestServerTransport_NonZeroExit(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)

	transport := shellTransport(t, "echo 'gopls: no go.mod' >&2; exit 3", func(o *config.Options) {
		o.Stderr = func(line string) {
			mu.Lock()
			defer mu.Unlock()

			lines = append(lines, line)
		}
	})

	messages, errs := transport.ReadMessages(context.Background())

	bodies, err := drain(t, messages, errs)
	require.Empty(t, bodies)

	procErr, ok := stderrors.AsType[*errors.ProcessError](err)
	require.True(t, ok, "expected ProcessError, got %v", err)
	require.Equal(t, 3, procErr.ExitCode)
	require.Equal(t, "gopls: no go.mod", procErr.Stderr)
	require.Equal(t, "gopls: no go.mod", transport.Stderr())

	mu.Lock()
	defer mu.Unlock()

	require.Equal(t, []string{"gopls: no go.mod"}, lines)
}

func TestServerTransport_CleanExit(t *testing.T) {
	transport := shellTransport(t, "exit 0", nil)

	messages, errs := transport.ReadMessages(context.Background())

	bodies, err := drain(t, messages, errs)
	require.NoError(t, err)
	require.Empty(t, bodies)
}

func TestServerTransport_FramingError(t *testing.T) {
	transport := shellTransport(t, `printf 'Content-Length: nope\r\n\r\n'; exec sleep 30`, nil)

	messages, errs := transport.ReadMessages(context.Background())

	select {
	case <-messages:
		t.Fatal("no message expected")
	case <-time.After(100 * time.Millisecond):
	}

	// The reader stops at the bad frame; the error surfaces once the process ends.
	require.NoError(t, transport.Close())

	_, err := drain(t, messages, errs)
	require.Error(t, err)

	_, ok := stderrors.AsType[*errors.FrameError](err)
	require.True(t, ok, "expected FrameError, got %v", err)
}

func TestServerTransport_CloseKillsProcess(t *testing.T) {
	transport := shellTransport(t, "exec sleep 30", nil)

	messages, errs := transport.ReadMessages(context.Background())

	require.NoError(t, transport.Close())
	require.NoError(t, transport.Close())
	require.False(t, transport.IsReady())

	// Killed during shutdown: no ProcessError.
	_, err := drain(t, messages, errs)
	require.NoError(t, err)
}

func TestServerTransport_SendAfterEndInput(t *testing.T) {
	transport := shellTransport(t, "exec sleep 30", nil)

	require.NoError(t, transport.EndInput())
	require.NoError(t, transport.EndInput())

	err := transport.SendMessage(context.Background(), []byte(`{}`))
	require.ErrorIs(t, err, errors.ErrStdinClosed)
}

func TestServerTransport_NotStarted(t *testing.T) {
	transport := NewServerTransport(slog.Default(), &config.Options{Command: "gopls"})

	require.False(t, transport.IsReady())
	require.ErrorIs(t, transport.SendMessage(context.Background(), []byte(`{}`)), errors.ErrTransportNotConnected)
	require.NoError(t, transport.EndInput())
	require.NoError(t, transport.Close())

	messages, errs := transport.ReadMessages(context.Background())

	_, err := drain(t, messages, errs)
	require.ErrorIs(t, err, errors.ErrTransportNotConnected)
}

func TestServerTransport_NotFound(t *testing.T) {
	transport := NewServerTransport(slog.Default(), &config.Options{
		Command: "/nonexistent/path/to/gopls",
	})

	err := transport.Start(context.Background())

	_, ok := stderrors.AsType[*errors.ServerNotFoundError](err)
	require.True(t, ok, "expected ServerNotFoundError, got %v", err)
}

// TestServerTransport_NonexistentCwd tests startup with an invalid working directory.
func TestServerTransport_NonexistentCwd(t *testing.T) {
	requireUnix(t)

	transport := NewServerTransport(slog.Default(), &config.Options{
		Command: "/bin/sh",
		Args:    []string{"-c", "exit 0"},
		Cwd:     "/nonexistent/path/that/does/not/exist",
	})

	err := transport.Start(context.Background())

	_, ok := stderrors.AsType[*errors.ConnectionError](err)
	require.True(t, ok, "expected ConnectionError, got %v", err)
}

func TestServerTransport_UnknownFraming(t *testing.T) {
	requireUnix(t)

	transport := NewServerTransport(slog.Default(), &config.Options{
		Command: "/bin/sh",
		Framing: "xml",
	})

	err := transport.Start(context.Background())
	require.ErrorContains(t, err, `unknown framing "xml"`)
}

func TestServerTransport_EnvIsPassed(t *testing.T) {
	transport := shellTransport(t, `printf 'Content-Length: %d\r\n\r\n%s' ${#LSP_TEST_VALUE} "$LSP_TEST_VALUE"`, func(o *config.Options) {
		o.Env = map[string]string{"LSP_TEST_VALUE": `"hi"`}
	})

	messages, errs := transport.ReadMessages(context.Background())

	bodies, err := drain(t, messages, errs)
	require.NoError(t, err)
	require.Equal(t, []string{`"hi"`}, bodies)
}

// TestStderrBuffer_SizeLimit tests that the stderr buffer stops growing at its limit.
func TestStderrBuffer_SizeLimit(t *testing.T) {
	transport := NewServerTransport(slog.Default(), nil)
	transport.stderrLimit = 10_000

	lineSize := 1000
	line := strings.Repeat("x", lineSize)

	for range 100 {
		transport.appendStderr(line)
	}

	// One line may be added when the buffer was just under the limit.
	require.LessOrEqual(t, len(transport.Stderr()), transport.stderrLimit+lineSize)
	require.NotEmpty(t, transport.Stderr())
}

// TestSendMessage_ConcurrentWrites tests that concurrent sends produce whole frames.
func TestSendMessage_ConcurrentWrites(t *testing.T) {
	transport := shellTransport(t, "exec cat", nil)

	ctx := context.Background()
	messages, errs := transport.ReadMessages(ctx)

	const numWriters = 20

	var wg sync.WaitGroup

	for range numWriters {
		wg.Go(func() {
			assert.NoError(t, transport.SendMessage(ctx, []byte(`{"jsonrpc":"2.0","method":"`+strings.Repeat("m", 500)+`"}`)))
		})
	}

	wg.Wait()
	require.NoError(t, transport.EndInput())

	bodies, err := drain(t, messages, errs)
	require.NoError(t, err)
	require.Len(t, bodies, numWriters)
}
