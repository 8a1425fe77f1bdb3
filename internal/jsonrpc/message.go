package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wagiedev/lsp-client-go/internal/errors"
)

// Version is the protocol version written into every outgoing message.
const Version = "2.0"

// CancelRequestMethod is the advisory cancellation notification.
const CancelRequestMethod = "$/cancelRequest"

// Message is one of *Request, *Notification, or *Response.
type Message interface {
	isMessage()
}

// Request is a call that expects exactly one Response with the same ID.
//
// Wire format:
//
//	{"jsonrpc": "2.0", "id": 1, "method": "textDocument/hover", "params": {...}}
type Request struct {
	ID     ID
	Method string
	Params json.RawMessage
}

// Notification is a call that expects no response.
//
// Wire format:
//
//	{"jsonrpc": "2.0", "method": "initialized", "params": {}}
type Notification struct {
	Method string
	Params json.RawMessage
}

// Response answers a Request. Exactly one of Result and Error is meaningful:
// when Error is nil the response is a success, and a nil Result is sent as null.
//
// Wire format:
//
//	{"jsonrpc": "2.0", "id": 1, "result": {...}}
//	{"jsonrpc": "2.0", "id": 1, "error": {"code": -32601, "message": "..."}}
type Response struct {
	ID     ID
	Result json.RawMessage
	Error  *errors.ResponseError
}

func (*Request) isMessage()      {}
func (*Notification) isMessage() {}
func (*Response) isMessage()     {}

// NewRequest builds a Request, marshaling params.
func NewRequest(id ID, method string, params any) (*Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	return &Request{ID: id, Method: method, Params: raw}, nil
}

// NewNotification builds a Notification, marshaling params.
func NewNotification(method string, params any) (*Notification, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	return &Notification{Method: method, Params: raw}, nil
}

// NewResponse builds a Response. If rpcErr is non-nil the result is ignored.
func NewResponse(id ID, result any, rpcErr *errors.ResponseError) (*Response, error) {
	if rpcErr != nil {
		return &Response{ID: id, Error: rpcErr}, nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	return &Response{ID: id, Result: raw}, nil
}

func marshalParams(params any) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	return raw, nil
}

// wireMessage is the union of every field a message may carry.
type wireMessage struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      *ID                   `json:"id,omitempty"`
	Method  string                `json:"method,omitempty"`
	Params  json.RawMessage       `json:"params,omitempty"`
	Result  json.RawMessage       `json:"result,omitempty"`
	Error   *errors.ResponseError `json:"error,omitempty"`
}

// Encode serializes msg with the protocol version set.
func Encode(msg Message) ([]byte, error) {
	w := wireMessage{JSONRPC: Version}

	switch m := msg.(type) {
	case *Request:
		w.ID = &m.ID
		w.Method = m.Method
		w.Params = m.Params
	case *Notification:
		w.Method = m.Method
		w.Params = m.Params
	case *Response:
		w.ID = &m.ID
		if m.Error != nil {
			w.Error = m.Error
		} else {
			w.Result = m.Result
			if len(w.Result) == 0 {
				w.Result = json.RawMessage("null")
			}
		}
	default:
		return nil, fmt.Errorf("encode: unsupported message type %T", msg)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	return data, nil
}

// Decode parses a single message and classifies it by which fields are present:
//
//   - method and id: *Request
//   - method without id: *Notification
//   - id with exactly one of result or error: *Response
//
// Anything else yields a *errors.ProtocolError.
func Decode(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &errors.ProtocolError{Reason: "decode message", Raw: string(data), Err: err}
	}

	rawID, hasID := fields["id"]
	rawMethod, hasMethod := fields["method"]
	rawResult, hasResult := fields["result"]
	rawError, hasError := fields["error"]

	// A null id is how peers answer requests they could not parse; it cannot
	// be correlated with anything we sent.
	if hasID && isNull(rawID) {
		hasID = false
	}

	var id ID

	if hasID {
		if err := json.Unmarshal(rawID, &id); err != nil {
			return nil, &errors.ProtocolError{Reason: "invalid id", Raw: string(data), Err: err}
		}
	}

	if hasMethod {
		var method string
		if err := json.Unmarshal(rawMethod, &method); err != nil || method == "" {
			return nil, &errors.ProtocolError{Reason: "method must be a non-empty string", Raw: string(data), Err: err}
		}

		if hasResult || hasError {
			return nil, &errors.ProtocolError{Reason: "call carries result or error", Raw: string(data)}
		}

		params := fields["params"]
		if isNull(params) {
			params = nil
		}

		if hasID {
			return &Request{ID: id, Method: method, Params: params}, nil
		}

		return &Notification{Method: method, Params: params}, nil
	}

	if !hasID {
		return nil, &errors.ProtocolError{Reason: "message has neither method nor id", Raw: string(data)}
	}

	switch {
	case hasResult && hasError && !isNull(rawError):
		return nil, &errors.ProtocolError{Reason: "response has both result and error", Raw: string(data)}
	case hasError && !isNull(rawError):
		var rpcErr errors.ResponseError
		if err := json.Unmarshal(rawError, &rpcErr); err != nil {
			return nil, &errors.ProtocolError{Reason: "invalid error object", Raw: string(data), Err: err}
		}

		return &Response{ID: id, Error: &rpcErr}, nil
	case hasResult:
		return &Response{ID: id, Result: rawResult}, nil
	}

	return nil, &errors.ProtocolError{Reason: "response has neither result nor error", Raw: string(data)}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
