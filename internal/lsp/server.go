package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/lsp-client-go/internal/protocol"
)

const (
	// ClientName is reported in initialize when the caller doesn't set one.
	ClientName = "lsp-client-go"
	// ClientVersion is reported alongside ClientName.
	ClientVersion = "0.1.0"
)

// Conn is the part of the endpoint the LSP wrappers use.
type Conn interface {
	Go(ctx context.Context, method string, params any, opts ...protocol.CallOption) *protocol.Call
	Notify(ctx context.Context, method string, params any) error
}

// Server wraps a connection to a language server with typed LSP calls.
type Server struct {
	log               *slog.Logger
	conn              Conn
	initializeTimeout time.Duration

	// Server initialization result (protected by initMu)
	initMu     sync.RWMutex
	initResult *InitializeResult
}

// NewServer creates a Server over conn. A non-positive initializeTimeout
// leaves initialize bounded only by the endpoint default.
func NewServer(log *slog.Logger, conn Conn, initializeTimeout time.Duration) *Server {
	return &Server{
		log:               log.With("component", "lsp"),
		conn:              conn,
		initializeTimeout: initializeTimeout,
	}
}

// NewProgressToken returns a fresh client-side work-done progress token.
func NewProgressToken() ProgressToken {
	return ulid.Make().String()
}

// Initialize sends the initialize request and stores the result.
//
// Missing fields are filled in: the process id, client info, and
// DefaultClientCapabilities. params itself is not modified.
func (s *Server) Initialize(ctx context.Context, params *InitializeParams) (*InitializeResult, error) {
	s.log.Debug("Sending initialize request")

	var p InitializeParams
	if params != nil {
		p = *params
	}

	if p.ProcessID == nil {
		pid := os.Getpid()
		p.ProcessID = &pid
	}

	if p.ClientInfo == nil {
		p.ClientInfo = &ClientInfo{Name: ClientName, Version: ClientVersion}
	}

	if p.Capabilities == nil {
		p.Capabilities = DefaultClientCapabilities()
	}

	var opts []protocol.CallOption
	if s.initializeTimeout > 0 {
		opts = append(opts, protocol.WithTimeout(s.initializeTimeout))
	}

	var result InitializeResult
	if err := s.call(ctx, MethodInitialize, &p, &result, opts...); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	s.initMu.Lock()
	s.initResult = &result
	s.initMu.Unlock()

	if result.ServerInfo != nil {
		s.log.Info("Language server initialized", "server", result.ServerInfo.Name, "version", result.ServerInfo.Version)
	} else {
		s.log.Info("Language server initialized")
	}

	return &result, nil
}

// InitializeResult returns a copy of the server's initialize result, or nil
// before Initialize has succeeded.
func (s *Server) InitializeResult() *InitializeResult {
	s.initMu.RLock()
	defer s.initMu.RUnlock()

	if s.initResult == nil {
		return nil
	}

	result := *s.initResult

	return &result
}

// Initialized sends the initialized notification.
func (s *Server) Initialized(ctx context.Context) error {
	return s.conn.Notify(ctx, MethodInitialized, struct{}{})
}

// Shutdown asks the server to shut down. The server stays running until Exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.call(ctx, MethodShutdown, nil, nil); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// Exit tells the server to exit.
func (s *Server) Exit(ctx context.Context) error {
	return s.conn.Notify(ctx, MethodExit, nil)
}

// DidOpen tells the server a document was opened with the given content.
func (s *Server) DidOpen(ctx context.Context, uri DocumentURI, languageID string, version int32, text string) error {
	return s.conn.Notify(ctx, MethodDidOpen, &DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: uri, LanguageID: languageID, Version: version, Text: text},
	})
}

// DidChange sends content changes for a new document version.
func (s *Server) DidChange(
	ctx context.Context,
	uri DocumentURI,
	version int32,
	changes ...TextDocumentContentChangeEvent,
) error {
	return s.conn.Notify(ctx, MethodDidChange, &DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: uri, Version: version},
		ContentChanges: changes,
	})
}

// DidClose tells the server a document was closed.
func (s *Server) DidClose(ctx context.Context, uri DocumentURI) error {
	return s.conn.Notify(ctx, MethodDidClose, &DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	})
}

// DidSave tells the server a document was saved. text may be nil.
func (s *Server) DidSave(ctx context.Context, uri DocumentURI, text *string) error {
	return s.conn.Notify(ctx, MethodDidSave, &DidSaveTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
		Text:         text,
	})
}

// Completion requests completion candidates. Both result forms, a bare item
// array and a CompletionList, are normalized to a CompletionList.
func (s *Server) Completion(ctx context.Context, params *CompletionParams, opts ...protocol.CallOption) (*CompletionList, error) {
	var raw json.RawMessage
	if err := s.call(ctx, MethodCompletion, params, &raw, opts...); err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	return decodeCompletion(raw)
}

// Hover requests hover information. Returns nil if the server has none.
func (s *Server) Hover(ctx context.Context, uri DocumentURI, pos Position, opts ...protocol.CallOption) (*Hover, error) {
	var hover *Hover
	if err := s.call(ctx, MethodHover, positionParams(uri, pos), &hover, opts...); err != nil {
		return nil, fmt.Errorf("hover: %w", err)
	}

	return hover, nil
}

// Definition returns the definition locations of the symbol at pos.
// Location links are converted to their target selection.
func (s *Server) Definition(ctx context.Context, uri DocumentURI, pos Position, opts ...protocol.CallOption) ([]Location, error) {
	var raw json.RawMessage
	if err := s.call(ctx, MethodDefinition, positionParams(uri, pos), &raw, opts...); err != nil {
		return nil, fmt.Errorf("definition: %w", err)
	}

	return decodeLocations(raw)
}

// References returns every reference to the symbol at pos.
func (s *Server) References(
	ctx context.Context,
	uri DocumentURI,
	pos Position,
	includeDeclaration bool,
	opts ...protocol.CallOption,
) ([]Location, error) {
	params := &ReferenceParams{
		TextDocumentPositionParams: positionParams(uri, pos),
		Context:                    ReferenceContext{IncludeDeclaration: includeDeclaration},
	}

	var raw json.RawMessage
	if err := s.call(ctx, MethodReferences, params, &raw, opts...); err != nil {
		return nil, fmt.Errorf("references: %w", err)
	}

	return decodeLocations(raw)
}

// DocumentSymbol returns the symbols in a document. Flat SymbolInformation
// results are converted to childless DocumentSymbols.
func (s *Server) DocumentSymbol(ctx context.Context, uri DocumentURI, opts ...protocol.CallOption) ([]DocumentSymbol, error) {
	params := &DocumentSymbolParams{TextDocument: TextDocumentIdentifier{URI: uri}}

	var raw json.RawMessage
	if err := s.call(ctx, MethodDocumentSymbol, params, &raw, opts...); err != nil {
		return nil, fmt.Errorf("document symbol: %w", err)
	}

	return decodeSymbols(raw)
}

func (s *Server) call(ctx context.Context, method string, params, result any, opts ...protocol.CallOption) error {
	return s.conn.Go(ctx, method, params, opts...).Decode(ctx, result)
}

func positionParams(uri DocumentURI, pos Position) TextDocumentPositionParams {
	return TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
		Position:     pos,
	}
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)

	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func decodeCompletion(raw json.RawMessage) (*CompletionList, error) {
	raw = bytes.TrimSpace(raw)

	if isNull(raw) {
		return &CompletionList{}, nil
	}

	if raw[0] == '[' {
		var items []CompletionItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode completion items: %w", err)
		}

		return &CompletionList{Items: items}, nil
	}

	var list CompletionList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode completion list: %w", err)
	}

	return &list, nil
}

// locationOrLink decodes either a Location or a LocationLink.
type locationOrLink struct {
	URI                  DocumentURI `json:"uri"`
	Range                Range       `json:"range"`
	TargetURI            DocumentURI `json:"targetUri"`
	TargetSelectionRange Range       `json:"targetSelectionRange"`
}

func (l locationOrLink) location() Location {
	if l.TargetURI != "" {
		return Location{URI: l.TargetURI, Range: l.TargetSelectionRange}
	}

	return Location{URI: l.URI, Range: l.Range}
}

func decodeLocations(raw json.RawMessage) ([]Location, error) {
	raw = bytes.TrimSpace(raw)

	if isNull(raw) {
		return nil, nil
	}

	if raw[0] != '[' {
		var single locationOrLink
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}

		return []Location{single.location()}, nil
	}

	var many []locationOrLink
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}

	locations := make([]Location, 0, len(many))
	for _, l := range many {
		locations = append(locations, l.location())
	}

	return locations, nil
}

// symbolOrInformation decodes either a DocumentSymbol or a SymbolInformation.
type symbolOrInformation struct {
	DocumentSymbol

	Location *Location `json:"location"`
}

func decodeSymbols(raw json.RawMessage) ([]DocumentSymbol, error) {
	if isNull(raw) {
		return nil, nil
	}

	var entries []symbolOrInformation
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode symbols: %w", err)
	}

	symbols := make([]DocumentSymbol, 0, len(entries))

	for _, entry := range entries {
		symbol := entry.DocumentSymbol
		if entry.Location != nil {
			symbol.Range = entry.Location.Range
			symbol.SelectionRange = entry.Location.Range
		}

		symbols = append(symbols, symbol)
	}

	return symbols, nil
}
