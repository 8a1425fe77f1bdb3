package lspclient

import (
	"log/slog"
	"maps"
	"time"

	"github.com/wagiedev/lsp-client-go/internal/config"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// ===== Server Process =====

// WithCommand sets the language server executable and its arguments.
// The command is resolved from an explicit path, $PATH, or common install
// directories such as ~/go/bin.
func WithCommand(command string, args ...string) Option {
	return func(o *Options) {
		o.Command = command
		o.Args = args
	}
}

// WithArgs replaces the server arguments, e.g. "serve" or "--stdio".
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = args
	}
}

// WithVersionCheck runs the server once with args during Start and logs a
// warning if the first X.Y.Z in its output is older than minimum:
//
//	lspclient.WithVersionCheck("0.15.0", "version") // gopls version
func WithVersionCheck(minimum string, args ...string) Option {
	return func(o *Options) {
		o.MinimumVersion = minimum
		o.VersionArgs = args
	}
}

// WithSkipVersionCheck disables the check set by WithVersionCheck.
func WithSkipVersionCheck() Option {
	return func(o *Options) {
		o.SkipVersionCheck = true
	}
}

// WithCwd sets the working directory for the server process.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithEnv adds environment variables for the server process.
// Repeated calls merge; later values win.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithEnvFile loads variables from a dotenv file into the server environment.
// WithEnv values take precedence.
func WithEnvFile(path string) Option {
	return func(o *Options) {
		o.EnvFile = path
	}
}

// WithStderr sets a callback receiving the server's stderr, line by line.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// ===== Wire =====

// WithFraming selects the wire framing. Defaults to FramingHeader.
func WithFraming(framing Framing) Option {
	return func(o *Options) {
		o.Framing = framing
	}
}

// WithMaxFrameSize caps the size of a single inbound message body.
func WithMaxFrameSize(size int) Option {
	return func(o *Options) {
		o.MaxFrameSize = size
	}
}

// WithTransport injects a custom transport implementation.
// The transport must implement the Transport interface.
func WithTransport(transport config.Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}

// ===== Requests =====

// WithRequestTimeout sets the default local deadline for outgoing requests.
// Zero, the default, lets requests wait until answered or until Close.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = timeout
	}
}

// WithInitializeTimeout sets the timeout for the initialize request.
func WithInitializeTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.InitializeTimeout = &timeout
	}
}

// WithSendRateLimit throttles outgoing requests and notifications to limit
// messages per second, allowing bursts of up to burst messages.
func WithSendRateLimit(limit float64, burst int) Option {
	return func(o *Options) {
		o.SendRateLimit = limit
		o.SendBurst = burst
	}
}

// ===== Handlers =====

// WithRequestHandler answers a server-initiated request method. It replaces
// the built-in handler for the same method, if any.
func WithRequestHandler(method string, handler RequestHandler) Option {
	return func(o *Options) {
		if o.RequestHandlers == nil {
			o.RequestHandlers = make(map[string]RequestHandler, 1)
		}

		o.RequestHandlers[method] = handler
	}
}

// WithNotificationHandler receives a server notification method. It replaces
// the built-in handler for the same method, if any.
func WithNotificationHandler(method string, handler NotificationHandler) Option {
	return func(o *Options) {
		if o.NotificationHandlers == nil {
			o.NotificationHandlers = make(map[string]NotificationHandler, 1)
		}

		o.NotificationHandlers[method] = handler
	}
}

// WithDiagnosticsHandler receives textDocument/publishDiagnostics.
func WithDiagnosticsHandler(handler func(PublishDiagnosticsParams)) Option {
	return func(o *Options) {
		o.OnDiagnostics = handler
	}
}

// WithLogMessageHandler receives window/logMessage.
func WithLogMessageHandler(handler func(LogMessageParams)) Option {
	return func(o *Options) {
		o.OnLogMessage = handler
	}
}

// ===== LSP Session =====

// WithRootURI sets the workspace root sent in initialize.
func WithRootURI(uri DocumentURI) Option {
	return func(o *Options) {
		o.RootURI = uri
	}
}

// WithInitializationOptions passes server-specific options in initialize.
func WithInitializationOptions(options any) Option {
	return func(o *Options) {
		o.InitializationOptions = options
	}
}

// WithSettings sets the values returned for workspace/configuration,
// keyed by section, e.g. {"gopls": {"staticcheck": true}}.
func WithSettings(settings map[string]any) Option {
	return func(o *Options) {
		o.Settings = settings
	}
}
