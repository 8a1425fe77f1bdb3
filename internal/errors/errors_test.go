package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseError(t *testing.T) {
	err := NewResponseError(CodeMethodNotFound, "method not found: %s", "foo/bar")

	require.Equal(t, "jsonrpc error -32601 (MethodNotFound): method not found: foo/bar", err.Error())
	require.ErrorIs(t, err, ErrMethodNotFound)
	require.NotErrorIs(t, err, ErrInvalidParams)
	require.True(t, err.IsEndpointError())
}

func TestResponseError_CancelledCodes(t *testing.T) {
	require.ErrorIs(t, &ResponseError{Code: CodeRequestCancelled}, ErrRequestCancelled)
	require.ErrorIs(t, &ResponseError{Code: CodeServerCancelled}, ErrRequestCancelled)
	require.NotErrorIs(t, &ResponseError{Code: CodeContentModified}, ErrRequestCancelled)
}

func TestProtocolError(t *testing.T) {
	root := errors.New("unexpected end of JSON input")
	err := &ProtocolError{Reason: "decode message", Raw: `{"id":`, Err: root}

	require.Equal(t, "protocol error: decode message: unexpected end of JSON input", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsEndpointError())

	bare := &ProtocolError{Reason: "response has both result and error"}
	require.Equal(t, "protocol error: response has both result and error", bare.Error())
}

func TestHandlerError(t *testing.T) {
	root := errors.New("boom")
	err := &HandlerError{Method: "workspace/configuration", Err: root}

	require.Equal(t, `handler "workspace/configuration" failed: boom`, err.Error())
	require.ErrorIs(t, err, root)
}

func TestServerNotFoundError(t *testing.T) {
	err := &ServerNotFoundError{
		Command:       "gopls",
		SearchedPaths: []string{"$PATH", "/usr/local/bin/gopls"},
	}

	require.Equal(t, `server "gopls" not found in: [$PATH /usr/local/bin/gopls]`, err.Error())
	require.True(t, err.IsEndpointError())
}

func TestConnectionError(t *testing.T) {
	root := errors.New("stdin pipe broken")
	err := &ConnectionError{Err: root}

	require.Equal(t, "failed to connect to server: stdin pipe broken", err.Error())
	require.ErrorIs(t, err, root)
}

func TestProcessError_WithUnderlyingError(t *testing.T) {
	root := errors.New("process terminated")
	err := &ProcessError{ExitCode: 9, Stderr: "ignored when Err is set", Err: root}

	require.Equal(t, "server process failed (exit 9): process terminated", err.Error())
	require.ErrorIs(t, err, root)
}

func TestProcessError_WithStderrOnly(t *testing.T) {
	err := &ProcessError{ExitCode: 2, Stderr: "flag provided but not defined"}

	require.Equal(t, "server process failed (exit 2): flag provided but not defined", err.Error())
	require.NoError(t, err.Unwrap())
}

func TestFrameError(t *testing.T) {
	root := errors.New("missing Content-Length")
	err := &FrameError{Raw: "Content-Type: x", Err: root}

	require.Equal(t, "invalid frame: missing Content-Length", err.Error())
	require.ErrorIs(t, err, root)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("x"), KindUnknown},
		{"timeout", fmt.Errorf("%w after 50ms", ErrRequestTimeout), KindTimeout},
		{"stopped", ErrEndpointStopped, KindShutdown},
		{"not started", ErrEndpointNotStarted, KindShutdown},
		{"transport", fmt.Errorf("%w: EOF", ErrTransportClosed), KindTransportClosed},
		{"cancelled", &ResponseError{Code: CodeRequestCancelled}, KindCancelled},
		{"method not found", &ResponseError{Code: CodeMethodNotFound}, KindMethodNotFound},
		{"invalid params", &ResponseError{Code: CodeInvalidParams}, KindInvalidParams},
		{"internal", &ResponseError{Code: CodeInternalError}, KindInternalHandler},
		{"handler", &HandlerError{Method: "m", Err: errors.New("x")}, KindInternalHandler},
		{"protocol", &ProtocolError{Reason: "r"}, KindProtocol},
		{"frame", &FrameError{Err: errors.New("x")}, KindProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestCode_String(t *testing.T) {
	require.Equal(t, "ParseError", CodeParseError.String())
	require.Equal(t, "ServerError", Code(-32050).String())
	require.Equal(t, "Unknown", Code(7).String())
	require.True(t, Code(-32000).IsServerError())
	require.False(t, CodeInternalError.IsServerError())
}
