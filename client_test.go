package lspclient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewClient_Creation tests client creation.
func TestNewClient_Creation(t *testing.T) {
	client := NewClient()
	require.NotNil(t, client)
	require.Nil(t, client.LSP())
	require.Nil(t, client.InitializeResult())

	require.NoError(t, client.Close())
}

// TestClient_NotConnected tests raw calls before Start.
func TestClient_NotConnected(t *testing.T) {
	client := NewClient()
	defer client.Close()

	ctx := context.Background()

	require.ErrorIs(t, client.Call(ctx, "textDocument/hover", nil, nil), ErrClientNotConnected)
	require.ErrorIs(t, client.Notify(ctx, "initialized", nil), ErrClientNotConnected)
	require.ErrorIs(t, client.Cancel(ctx, 0), ErrClientNotConnected)

	_, err := client.Go(ctx, "shutdown", nil)
	require.ErrorIs(t, err, ErrClientNotConnected)
}

// TestClient_Session tests a typical session against a scripted server.
func TestClient_Session(t *testing.T) {
	server := newFakeServer(map[string]string{
		"textDocument/documentSymbol": `[{"name":"main","kind":12,"range":{"start":{"line":2,"character":0},"end":{"line":4,"character":1}},"selectionRange":{"start":{"line":2,"character":5},"end":{"line":2,"character":9}}}]`,
		"workspace/symbol":            `[]`,
	})

	ctx := context.Background()
	client := NewClient()

	require.NoError(t, client.Start(ctx, WithTransport(server), WithRootURI("file:///src/app")))

	result := client.InitializeResult()
	require.Equal(t, "fake-ls", result.ServerInfo.Name)
	require.True(t, Supports(result.Capabilities.DocumentSymbolProvider))

	uri := DocumentURI("file:///src/app/main.go")
	require.NoError(t, client.LSP().DidOpen(ctx, uri, "go", 1, "package main\n\nfunc main() {\n}\n"))

	symbols, err := client.LSP().DocumentSymbol(ctx, uri)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	require.Equal(t, "main", symbols[0].Name)

	var raw json.RawMessage
	require.NoError(t, client.Call(ctx, "workspace/symbol", map[string]string{"query": "x"}, &raw))
	require.JSONEq(t, `[]`, string(raw))

	_, err = client.LSP().Hover(ctx, uri, Position{Line: 2, Character: 6})
	require.ErrorIs(t, err, ErrMethodNotFound)
	require.Equal(t, KindMethodNotFound, KindOf(err))

	require.Equal(t, 0, client.Pending())
	require.NoError(t, client.Close())
	require.NoError(t, client.Err())

	require.Equal(t, []string{
		"initialize",
		"initialized",
		"textDocument/didOpen",
		"textDocument/documentSymbol",
		"workspace/symbol",
		"textDocument/hover",
		"shutdown",
		"exit",
	}, server.received())
}

// TestClient_CallTimeout tests per-call and default deadlines on requests
// the server never answers.
func TestClient_CallTimeout(t *testing.T) {
	server := newFakeServer(map[string]string{"workspace/symbol": ""})

	client := NewClient()
	defer client.Close()

	require.NoError(t, client.Start(context.Background(),
		WithTransport(server),
		WithRequestTimeout(time.Minute),
	))

	call, err := client.Go(context.Background(), "workspace/symbol", nil, WithTimeout(30*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, call.Cancel(context.Background()))

	_, err = call.Wait(context.Background())
	require.ErrorIs(t, err, ErrRequestTimeout)
	require.Equal(t, KindTimeout, KindOf(err))
	require.Equal(t, 0, client.Pending())
	require.Contains(t, server.received(), "$/cancelRequest")
}

// TestClient_CloseResolvesPending tests that Close fails outstanding calls.
func TestClient_CloseResolvesPending(t *testing.T) {
	server := newFakeServer(map[string]string{"workspace/symbol": ""})

	client := NewClient()
	require.NoError(t, client.Start(context.Background(), WithTransport(server)))

	call, err := client.Go(context.Background(), "workspace/symbol", nil)
	require.NoError(t, err)
	require.Equal(t, 1, client.Pending())

	require.NoError(t, client.Close())

	// The fake server ends the stream on exit, before the endpoint is stopped.
	_, err = call.Wait(context.Background())
	require.ErrorIs(t, err, ErrTransportClosed)
	require.Equal(t, KindTransportClosed, KindOf(err))
}

// TestClient_TypedHandlers tests user handlers built with the typed helpers.
func TestClient_TypedHandlers(t *testing.T) {
	type showDocumentParams struct {
		URI       string `json:"uri"`
		TakeFocus bool   `json:"takeFocus,omitempty"`
	}

	shown := make(chan string, 1)

	showDocument, err := TypedRequestHandler(func(_ context.Context, p showDocumentParams) (map[string]bool, error) {
		shown <- p.URI

		return map[string]bool{"success": true}, nil
	})
	require.NoError(t, err)

	server := newFakeServer(nil)

	client := NewClient()
	defer client.Close()

	require.NoError(t, client.Start(context.Background(),
		WithTransport(server),
		WithRequestHandler("window/showDocument", showDocument),
	))

	server.push(`{"jsonrpc":"2.0","id":1,"method":"window/showDocument","params":{"uri":"file:///a.go"}}`)
	server.push(`{"jsonrpc":"2.0","id":2,"method":"window/showDocument","params":{"uri":7}}`)

	first := <-server.responses
	require.Nil(t, first.Error)
	require.JSONEq(t, `{"success":true}`, string(first.Result))
	require.Equal(t, "file:///a.go", <-shown)

	second := <-server.responses
	require.NotNil(t, second.Error)
	require.Equal(t, CodeInvalidParams, second.Error.Code)
}

// TestWithClient_CallbackError tests that the callback's error is returned
// and the client is closed afterwards.
func TestWithClient_CallbackError(t *testing.T) {
	server := newFakeServer(nil)
	callbackErr := errors.New("callback failed")

	var started Client

	err := WithClient(context.Background(), func(c Client) error {
		started = c

		return callbackErr
	}, WithTransport(server), WithSettings(map[string]any{"gopls": map[string]any{}}))
	require.ErrorIs(t, err, callbackErr)

	select {
	case <-started.Done():
	default:
		t.Fatal("client not closed after WithClient returned")
	}

	require.Equal(t, "exit", server.received()[len(server.received())-1])
}
