package lspclient

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/wagiedev/lsp-client-go/internal/errors"
	"github.com/wagiedev/lsp-client-go/internal/jsonrpc"
)

// fakeServer implements Transport as a scripted language server. Requests
// are answered from results by method; an empty result leaves the request
// unanswered, and unknown methods get MethodNotFound.
// Responses to server-initiated requests are collected in responses.
type fakeServer struct {
	mu      sync.Mutex
	closed  bool
	results map[string]string
	methods []string

	messages  chan []byte
	errs      chan error
	responses chan *jsonrpc.Response
}

// Compile-time check that *fakeServer implements Transport.
var _ Transport = (*fakeServer)(nil)

func newFakeServer(results map[string]string) *fakeServer {
	all := map[string]string{
		"initialize": `{"capabilities":{"hoverProvider":true,"documentSymbolProvider":true},"serverInfo":{"name":"fake-ls"}}`,
		"shutdown":   `null`,
	}

	for method, result := range results {
		all[method] = result
	}

	return &fakeServer{
		results:   all,
		messages:  make(chan []byte, 100),
		errs:      make(chan error, 1),
		responses: make(chan *jsonrpc.Response, 100),
	}
}

func (s *fakeServer) Start(_ context.Context) error { return nil }

func (s *fakeServer) ReadMessages(_ context.Context) (<-chan []byte, <-chan error) {
	return s.messages, s.errs
}

func (s *fakeServer) SendMessage(_ context.Context, data []byte) error {
	msg, err := jsonrpc.Decode(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := msg.(type) {
	case *jsonrpc.Request:
		s.methods = append(s.methods, m.Method)

		var resp *jsonrpc.Response

		result, ok := s.results[m.Method]

		switch {
		case ok && result == "":
			return nil
		case ok:
			resp, err = jsonrpc.NewResponse(m.ID, json.RawMessage(result), nil)
		default:
			resp, err = jsonrpc.NewResponse(m.ID, nil,
				errors.NewResponseError(errors.CodeMethodNotFound, "method not found: %s", m.Method))
		}

		if err != nil {
			return err
		}

		data, err := jsonrpc.Encode(resp)
		if err != nil {
			return err
		}

		s.pushLocked(data)

	case *jsonrpc.Notification:
		s.methods = append(s.methods, m.Method)

		if m.Method == "exit" {
			s.closeLocked()
		}

	case *jsonrpc.Response:
		s.responses <- m
	}

	return nil
}

// push delivers a server-to-client frame.
func (s *fakeServer) push(data string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushLocked([]byte(data))
}

func (s *fakeServer) pushLocked(data []byte) {
	if !s.closed {
		s.messages <- data
	}
}

func (s *fakeServer) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.messages)
		close(s.errs)
	}
}

// received returns the methods the client sent, in order.
func (s *fakeServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.methods...)
}

func (s *fakeServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()

	return nil
}

func (s *fakeServer) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed
}

func (s *fakeServer) EndInput() error { return nil }
