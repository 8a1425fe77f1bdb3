package jsonrpc

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/lsp-client-go/internal/errors"
)

func TestDecode_Classification(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Message
	}{
		{
			name: "request",
			data: `{"jsonrpc":"2.0","id":5,"method":"foo/bar","params":{}}`,
			want: &Request{ID: Int64ID(5), Method: "foo/bar", Params: json.RawMessage(`{}`)},
		},
		{
			name: "request with string id",
			data: `{"jsonrpc":"2.0","id":"abc","method":"workspace/configuration"}`,
			want: &Request{ID: StringID("abc"), Method: "workspace/configuration"},
		},
		{
			name: "notification",
			data: `{"jsonrpc":"2.0","method":"window/logMessage","params":{"type":3,"message":"hi"}}`,
			want: &Notification{Method: "window/logMessage", Params: json.RawMessage(`{"type":3,"message":"hi"}`)},
		},
		{
			name: "notification with null params",
			data: `{"jsonrpc":"2.0","method":"exit","params":null}`,
			want: &Notification{Method: "exit"},
		},
		{
			name: "result response",
			data: `{"jsonrpc":"2.0","id":0,"result":{}}`,
			want: &Response{ID: Int64ID(0), Result: json.RawMessage(`{}`)},
		},
		{
			name: "null result response",
			data: `{"jsonrpc":"2.0","id":3,"result":null}`,
			want: &Response{ID: Int64ID(3), Result: json.RawMessage(`null`)},
		},
		{
			name: "error response",
			data: `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"nope"}}`,
			want: &Response{ID: Int64ID(1), Error: &errors.ResponseError{Code: errors.CodeMethodNotFound, Message: "nope"}},
		},
		{
			name: "result with null error",
			data: `{"jsonrpc":"2.0","id":1,"result":"A","error":null}`,
			want: &Response{ID: Int64ID(1), Result: json.RawMessage(`"A"`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.data))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		reason string
	}{
		{"not json", `{"id":`, "decode message"},
		{"array", `[1,2]`, "decode message"},
		{"empty object", `{}`, "message has neither method nor id"},
		{"both result and error", `{"id":1,"result":1,"error":{"code":1,"message":"x"}}`, "response has both result and error"},
		{"neither result nor error", `{"id":1}`, "response has neither result nor error"},
		{"null id error response", `{"id":null,"error":{"code":-32700,"message":"parse"}}`, "message has neither method nor id"},
		{"fractional id", `{"id":1.5,"result":1}`, "invalid id"},
		{"bool id", `{"id":true,"method":"x"}`, "invalid id"},
		{"numeric method", `{"id":1,"method":7}`, "method must be a non-empty string"},
		{"empty method", `{"method":""}`, "method must be a non-empty string"},
		{"call with result", `{"id":1,"method":"x","result":1}`, "call carries result or error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.data))
			require.Nil(t, msg)

			perr, ok := stderrors.AsType[*errors.ProtocolError](err)
			require.True(t, ok, "expected ProtocolError, got %T", err)
			assert.Equal(t, tt.reason, perr.Reason)
			assert.Equal(t, tt.data, perr.Raw)
		})
	}
}

func TestEncode(t *testing.T) {
	req, err := NewRequest(Int64ID(0), "initialize", map[string]any{"processId": nil})
	require.NoError(t, err)

	data, err := Encode(req)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"processId":null}}`, string(data))

	note, err := NewNotification("initialized", struct{}{})
	require.NoError(t, err)

	data, err = Encode(note)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","method":"initialized","params":{}}`, string(data))

	noParams, err := NewNotification("exit", nil)
	require.NoError(t, err)

	data, err = Encode(noParams)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","method":"exit"}`, string(data))
}

func TestEncode_Response(t *testing.T) {
	ok, err := NewResponse(StringID("x"), nil, nil)
	require.NoError(t, err)

	data, err := Encode(ok)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":"x","result":null}`, string(data))

	failed, err := NewResponse(Int64ID(5), "ignored", errors.NewResponseError(errors.CodeMethodNotFound, "method not found: %s", "foo/bar"))
	require.NoError(t, err)

	data, err = Encode(failed)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":5,"error":{"code":-32601,"message":"method not found: foo/bar"}}`, string(data))
}

func TestEncode_MarshalFailure(t *testing.T) {
	_, err := NewRequest(Int64ID(1), "x", map[string]any{"ch": make(chan int)})
	require.ErrorContains(t, err, "marshal params")

	_, err = NewResponse(Int64ID(1), func() {}, nil)
	require.ErrorContains(t, err, "marshal result")
}

func TestID(t *testing.T) {
	n, ok := Int64ID(42).Int64()
	require.True(t, ok)
	require.Equal(t, int64(42), n)

	_, ok = StringID("42").Int64()
	require.False(t, ok)

	require.Equal(t, "42", Int64ID(42).String())
	require.Equal(t, `"42"`, StringID("42").String())
	require.NotEqual(t, Int64ID(42), StringID("42"))

	var id ID
	require.NoError(t, json.Unmarshal([]byte(` 7 `), &id))
	require.Equal(t, Int64ID(7), id)
	require.Error(t, json.Unmarshal([]byte(`null`), &id))
}
