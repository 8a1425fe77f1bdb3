package lsp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/lsp-client-go/internal/protocol"
	"github.com/wagiedev/lsp-client-go/internal/stream"
)

// pair is a client endpoint connected to a scripted server endpoint over
// in-memory pipes using LSP header framing.
type pair struct {
	client *protocol.Endpoint
	server *protocol.Endpoint
}

func nopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newPair(t *testing.T, serverCfg, clientCfg *protocol.Config) *pair {
	t.Helper()

	log := nopLogger()
	framer := &stream.HeaderFramer{MaxFrameSize: stream.DefaultMaxFrameSize}

	toClientR, toClientW := io.Pipe()
	toServerR, toServerW := io.Pipe()

	clientConn := stream.NewConn(log, toClientR, toServerW, framer)
	serverConn := stream.NewConn(log, toServerR, toClientW, framer)

	p := &pair{
		client: protocol.NewEndpoint(log, clientConn, clientCfg),
		server: protocol.NewEndpoint(log, serverConn, serverCfg),
	}

	require.NoError(t, p.server.Start(context.Background()))
	require.NoError(t, p.client.Start(context.Background()))

	t.Cleanup(func() {
		_ = clientConn.Close()
		_ = serverConn.Close()

		p.client.Stop()
		p.server.Stop()
	})

	return p
}

// respond builds a server request handler returning a fixed JSON result.
func respond(result string) protocol.RequestHandler {
	return func(_ context.Context, _ json.RawMessage) (any, error) {
		return json.RawMessage(result), nil
	}
}

// record builds a server notification handler that forwards params to ch.
func record(ch chan<- json.RawMessage) protocol.NotificationHandler {
	return func(_ context.Context, params json.RawMessage) error {
		ch <- params

		return nil
	}
}

func receive(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
	t.Helper()

	select {
	case params := <-ch:
		return params
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")

		return nil
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	return ctx
}
