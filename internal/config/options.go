package config

import (
	"log/slog"
	"time"

	"github.com/wagiedev/lsp-client-go/internal/lsp"
	"github.com/wagiedev/lsp-client-go/internal/protocol"
	"github.com/wagiedev/lsp-client-go/internal/stream"
)

// Options configures the client and the server process it talks to.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Command is the language server executable, either a path or a name
	// looked up in PATH and common install directories.
	Command string

	// Args are passed to the server process, e.g. "serve" or "--stdio".
	Args []string

	// VersionArgs make the server print its version, e.g. []string{"version"}
	// for gopls. Empty disables the version check.
	VersionArgs []string

	// MinimumVersion is the lowest X.Y.Z server version that does not log a
	// warning during discovery.
	MinimumVersion string

	// SkipVersionCheck disables the version check even when VersionArgs is set.
	SkipVersionCheck bool

	// Cwd sets the working directory for the server process.
	Cwd string

	// EnvFile is a dotenv file whose variables are added to the server
	// environment, after os.Environ and before Env.
	EnvFile string

	// Env provides additional environment variables for the server process.
	// Env wins over EnvFile and the inherited environment.
	Env map[string]string

	// Stderr is a callback function for handling stderr output, one line
	// at a time.
	Stderr func(string)

	// Framing selects the wire framing for the default subprocess
	// transport. Defaults to stream.FramingHeader.
	Framing stream.Framing

	// MaxFrameSize caps the body size of a single inbound frame.
	// Defaults to stream.DefaultMaxFrameSize.
	MaxFrameSize int

	// RequestTimeout is the default deadline for outgoing requests.
	// Zero means no local deadline.
	RequestTimeout time.Duration

	// InitializeTimeout bounds the LSP initialize request.
	// If nil, defaults to 60 seconds. Can also be set via the
	// LSP_CLIENT_INITIALIZE_TIMEOUT env var, in seconds.
	InitializeTimeout *time.Duration

	// SendRateLimit throttles outgoing messages per second. Zero disables it.
	SendRateLimit float64

	// SendBurst is the number of messages allowed above SendRateLimit at once.
	SendBurst int

	// RequestHandlers answer requests the server sends to the client.
	// They are registered before the dispatch loop starts and replace the
	// built-in LSP handler for the same method.
	RequestHandlers map[string]protocol.RequestHandler

	// NotificationHandlers receive notifications the server sends.
	NotificationHandlers map[string]protocol.NotificationHandler

	// RootURI is the workspace root sent in initialize, e.g. "file:///src/app".
	RootURI lsp.DocumentURI

	// InitializationOptions is passed through verbatim in initialize.
	InitializationOptions any

	// Settings answers workspace/configuration requests, keyed by section.
	Settings map[string]any

	// OnDiagnostics receives textDocument/publishDiagnostics notifications.
	OnDiagnostics func(lsp.PublishDiagnosticsParams)

	// OnLogMessage receives window/logMessage and window/showMessage
	// notifications.
	OnLogMessage func(lsp.LogMessageParams)

	// Transport allows injecting a custom transport implementation.
	// If nil, a ServerTransport running Command is created automatically.
	// This field is not serialized to JSON.
	Transport Transport `json:"-"`
}
