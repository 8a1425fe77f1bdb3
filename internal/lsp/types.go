package lsp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// DocumentURI is a file or other resource URI, e.g. "file:///src/main.go".
type DocumentURI string

// ProgressToken identifies a work-done progress stream: a string or a
// number. Decoded numbers are float64.
type ProgressToken = any

// Position is a zero-based line and UTF-16 character offset.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location is a range inside a document.
type Location struct {
	URI   DocumentURI `json:"uri"`
	Range Range       `json:"range"`
}

// LocationLink is the richer form some servers return for definitions.
type LocationLink struct {
	OriginSelectionRange *Range      `json:"originSelectionRange,omitempty"`
	TargetURI            DocumentURI `json:"targetUri"`
	TargetRange          Range       `json:"targetRange"`
	TargetSelectionRange Range       `json:"targetSelectionRange"`
}

// TextDocumentIdentifier names a document.
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// VersionedTextDocumentIdentifier names a specific version of a document.
type VersionedTextDocumentIdentifier struct {
	URI     DocumentURI `json:"uri"`
	Version int32       `json:"version"`
}

// TextDocumentItem carries the full content of an opened document.
type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int32       `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentPositionParams addresses a position in a document.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// WorkDoneProgressParams lets a request carry a client-chosen progress token.
type WorkDoneProgressParams struct {
	WorkDoneToken ProgressToken `json:"workDoneToken,omitempty"`
}

// TextDocumentContentChangeEvent is a full-text change when Range is nil and
// an incremental change otherwise.
type TextDocumentContentChangeEvent struct {
	Range *Range `json:"range,omitempty"`
	Text  string `json:"text"`
}

// DidOpenTextDocumentParams is sent with textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidChangeTextDocumentParams is sent with textDocument/didChange.
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseTextDocumentParams is sent with textDocument/didClose.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DidSaveTextDocumentParams is sent with textDocument/didSave.
type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitempty"`
}

// CompletionTriggerKind says how completion was triggered.
type CompletionTriggerKind int

const (
	CompletionTriggerInvoked       CompletionTriggerKind = 1
	CompletionTriggerCharacter     CompletionTriggerKind = 2
	CompletionTriggerForIncomplete CompletionTriggerKind = 3
)

// CompletionContext is the optional trigger information for completion.
type CompletionContext struct {
	TriggerKind      CompletionTriggerKind `json:"triggerKind"`
	TriggerCharacter string                `json:"triggerCharacter,omitempty"`
}

// CompletionParams is sent with textDocument/completion.
type CompletionParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams

	Context *CompletionContext `json:"context,omitempty"`
}

// CompletionItem is one completion candidate.
type CompletionItem struct {
	Label         string          `json:"label"`
	Kind          int             `json:"kind,omitempty"`
	Detail        string          `json:"detail,omitempty"`
	Documentation json.RawMessage `json:"documentation,omitempty"`
	SortText      string          `json:"sortText,omitempty"`
	FilterText    string          `json:"filterText,omitempty"`
	InsertText    string          `json:"insertText,omitempty"`
}

// CompletionList is the normalized completion result.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// MarkupContent is hover or documentation text.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts MarkupContent as well as the deprecated MarkedString
// forms: a plain string, a {language, value} object, or an array of either.
func (m *MarkupContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*m = MarkupContent{}

		return nil

	case data[0] == '[':
		var parts []MarkupContent
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("decode marked strings: %w", err)
		}

		values := make([]string, 0, len(parts))
		for _, part := range parts {
			values = append(values, part.Value)
		}

		*m = MarkupContent{Kind: "markdown", Value: strings.Join(values, "\n\n")}

		return nil

	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode marked string: %w", err)
		}

		*m = MarkupContent{Kind: "markdown", Value: s}

		return nil
	}

	var obj struct {
		Kind     string `json:"kind"`
		Language string `json:"language"`
		Value    string `json:"value"`
	}

	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode markup content: %w", err)
	}

	if obj.Kind == "" && obj.Language != "" {
		*m = MarkupContent{Kind: "markdown", Value: "```" + obj.Language + "\n" + obj.Value + "\n```"}

		return nil
	}

	*m = MarkupContent{Kind: obj.Kind, Value: obj.Value}

	return nil
}

// Hover is the textDocument/hover result.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// ReferenceContext controls whether the declaration is included.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferenceParams is sent with textDocument/references.
type ReferenceParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams

	Context ReferenceContext `json:"context"`
}

// DocumentSymbolParams is sent with textDocument/documentSymbol.
type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// SymbolKind classifies a symbol, e.g. 12 for a function.
type SymbolKind int

// DocumentSymbol is a hierarchical symbol.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// SymbolInformation is the flat symbol form older servers return.
type SymbolInformation struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	Location      Location   `json:"location"`
	ContainerName string     `json:"containerName,omitempty"`
}

// DiagnosticSeverity ranks a diagnostic; 1 is an error.
type DiagnosticSeverity int

const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

// Diagnostic is a compiler error, warning, or hint.
type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity,omitempty"`
	Code     any                `json:"code,omitempty"`
	Source   string             `json:"source,omitempty"`
	Message  string             `json:"message"`
}

// PublishDiagnosticsParams is sent by the server with textDocument/publishDiagnostics.
type PublishDiagnosticsParams struct {
	URI         DocumentURI  `json:"uri"`
	Version     *int32       `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// MessageType ranks a log or show message; 1 is an error.
type MessageType int

const (
	MessageError   MessageType = 1
	MessageWarning MessageType = 2
	MessageInfo    MessageType = 3
	MessageLog     MessageType = 4
)

// Level maps the message type to a log level.
func (t MessageType) Level() slog.Level {
	switch t {
	case MessageError:
		return slog.LevelError
	case MessageWarning:
		return slog.LevelWarn
	case MessageInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// LogMessageParams is sent with window/logMessage and window/showMessage.
type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// ConfigurationItem asks for one settings section.
type ConfigurationItem struct {
	ScopeURI DocumentURI `json:"scopeUri,omitempty"`
	Section  string      `json:"section,omitempty"`
}

// ConfigurationParams is sent by the server with workspace/configuration.
type ConfigurationParams struct {
	Items []ConfigurationItem `json:"items,omitempty"`
}

// WorkDoneProgressCreateParams is sent by the server with
// window/workDoneProgress/create.
type WorkDoneProgressCreateParams struct {
	Token ProgressToken `json:"token"`
}

// ProgressParams is sent with $/progress.
type ProgressParams struct {
	Token ProgressToken         `json:"token"`
	Value WorkDoneProgressValue `json:"value"`
}

// WorkDoneProgressValue is the begin, report, or end payload of $/progress.
type WorkDoneProgressValue struct {
	Kind        string  `json:"kind"`
	Title       string  `json:"title,omitempty"`
	Message     string  `json:"message,omitempty"`
	Percentage  *uint32 `json:"percentage,omitempty"`
	Cancellable bool    `json:"cancellable,omitempty"`
}

// Registration is one dynamic capability registration.
type Registration struct {
	ID              string `json:"id"`
	Method          string `json:"method"`
	RegisterOptions any    `json:"registerOptions,omitempty"`
}

// RegistrationParams is sent by the server with client/registerCapability.
type RegistrationParams struct {
	Registrations []Registration `json:"registrations,omitempty"`
}

// Unregistration removes a dynamic registration.
type Unregistration struct {
	ID     string `json:"id"`
	Method string `json:"method"`
}

// UnregistrationParams is sent by the server with client/unregisterCapability.
type UnregistrationParams struct {
	Unregisterations []Unregistration `json:"unregisterations,omitempty"`
}

// ClientInfo identifies the client in initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ServerInfo identifies the server in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// WorkspaceFolder is a root the server should index.
type WorkspaceFolder struct {
	URI  DocumentURI `json:"uri"`
	Name string      `json:"name"`
}

// InitializeParams is sent with initialize.
type InitializeParams struct {
	WorkDoneProgressParams

	ProcessID             *int               `json:"processId"`
	ClientInfo            *ClientInfo        `json:"clientInfo,omitempty"`
	RootURI               *DocumentURI       `json:"rootUri"`
	InitializationOptions any                `json:"initializationOptions,omitempty"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	WorkspaceFolders      []WorkspaceFolder  `json:"workspaceFolders,omitempty"`
}

// InitializeResult is the server's answer to initialize.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// ServerCapabilities lists what the server supports. Providers are kept raw
// since each may be a boolean or an options object.
type ServerCapabilities struct {
	TextDocumentSync       json.RawMessage `json:"textDocumentSync,omitempty"`
	CompletionProvider     json.RawMessage `json:"completionProvider,omitempty"`
	HoverProvider          json.RawMessage `json:"hoverProvider,omitempty"`
	DefinitionProvider     json.RawMessage `json:"definitionProvider,omitempty"`
	ReferencesProvider     json.RawMessage `json:"referencesProvider,omitempty"`
	DocumentSymbolProvider json.RawMessage `json:"documentSymbolProvider,omitempty"`
}

// Supports reports whether a provider field advertises support: true or any
// options object.
func Supports(provider json.RawMessage) bool {
	provider = bytes.TrimSpace(provider)

	return len(provider) > 0 &&
		!bytes.Equal(provider, []byte("false")) &&
		!bytes.Equal(provider, []byte("null"))
}
