package lspclient

import (
	"encoding/json"
	"time"

	"github.com/wagiedev/lsp-client-go/internal/config"
	"github.com/wagiedev/lsp-client-go/internal/lsp"
	"github.com/wagiedev/lsp-client-go/internal/mcpconn"
	"github.com/wagiedev/lsp-client-go/internal/protocol"
	"github.com/wagiedev/lsp-client-go/internal/stream"
)

// Re-export types from internal packages

// ===== Options and Configuration =====

// Options configures the client and the server process.
type Options = config.Options

// Framing selects how messages are delimited on the wire.
type Framing = stream.Framing

const (
	// FramingHeader is the LSP base protocol: Content-Length headers. Default.
	FramingHeader = stream.FramingHeader
	// FramingLine is newline-delimited JSON over the subprocess pipes.
	FramingLine = stream.FramingLine
	// FramingMCP runs the server through the MCP SDK command transport,
	// which also speaks newline-delimited JSON.
	FramingMCP = mcpconn.Framing
)

// ===== JSON-RPC =====

// Call is the handle of an outgoing request.
type Call = protocol.Call

// CallOption configures a single outgoing request.
type CallOption = protocol.CallOption

// RequestHandler answers a server-initiated request. Returning a
// *ResponseError sends that error object verbatim.
type RequestHandler = protocol.RequestHandler

// NotificationHandler receives a server notification.
type NotificationHandler = protocol.NotificationHandler

// WithTimeout sets a request's local deadline, overriding WithRequestTimeout.
func WithTimeout(d time.Duration) CallOption {
	return protocol.WithTimeout(d)
}

// ===== LSP =====

// LanguageServer holds the typed LSP wrappers.
type LanguageServer = lsp.Server

type (
	DocumentURI                    = lsp.DocumentURI
	Position                       = lsp.Position
	Range                          = lsp.Range
	Location                       = lsp.Location
	TextDocumentIdentifier         = lsp.TextDocumentIdentifier
	TextDocumentPositionParams     = lsp.TextDocumentPositionParams
	TextDocumentContentChangeEvent = lsp.TextDocumentContentChangeEvent
	CompletionParams               = lsp.CompletionParams
	CompletionContext              = lsp.CompletionContext
	CompletionList                 = lsp.CompletionList
	CompletionItem                 = lsp.CompletionItem
	MarkupContent                  = lsp.MarkupContent
	Hover                          = lsp.Hover
	DocumentSymbol                 = lsp.DocumentSymbol
	SymbolKind                     = lsp.SymbolKind
	Diagnostic                     = lsp.Diagnostic
	DiagnosticSeverity             = lsp.DiagnosticSeverity
	PublishDiagnosticsParams       = lsp.PublishDiagnosticsParams
	LogMessageParams               = lsp.LogMessageParams
	MessageType                    = lsp.MessageType
	InitializeResult               = lsp.InitializeResult
	ServerCapabilities             = lsp.ServerCapabilities
	ServerInfo                     = lsp.ServerInfo
	Progress                       = lsp.Progress
	ProgressToken                  = lsp.ProgressToken
)

// Supports reports whether a ServerCapabilities provider field advertises
// support.
func Supports(provider json.RawMessage) bool {
	return lsp.Supports(provider)
}

// NewProgressToken returns a fresh client-side work-done progress token.
func NewProgressToken() ProgressToken {
	return lsp.NewProgressToken()
}
