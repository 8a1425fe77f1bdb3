package lsp

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wagiedev/lsp-client-go/internal/protocol"
)

// HandlerConfig configures the built-in handlers for server-initiated
// requests and notifications.
type HandlerConfig struct {
	Logger *slog.Logger

	// Settings answers workspace/configuration. Sections are looked up by
	// their full name first, then as a dotted path into nested maps.
	Settings map[string]any

	OnDiagnostics func(PublishDiagnosticsParams)
	OnLogMessage  func(LogMessageParams)

	// Progress receives window/workDoneProgress/create and $/progress.
	// Nil disables tracking; the requests are still acknowledged.
	Progress *ProgressTracker
}

// Handlers returns the request and notification handlers a client needs to
// answer a typical language server.
func Handlers(cfg *HandlerConfig) (map[string]protocol.RequestHandler, map[string]protocol.NotificationHandler, error) {
	if cfg == nil {
		cfg = &HandlerConfig{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	log = log.With("component", "lsp_handlers")

	b := &handlerBuilder{
		requests:      make(map[string]protocol.RequestHandler),
		notifications: make(map[string]protocol.NotificationHandler),
	}

	addRequest(b, MethodWorkspaceConfiguration, func(_ context.Context, p ConfigurationParams) ([]any, error) {
		out := make([]any, len(p.Items))
		for i, item := range p.Items {
			out[i] = lookupSection(cfg.Settings, item.Section)
		}

		return out, nil
	})

	addRequest(b, MethodWorkDoneProgressCreate, func(_ context.Context, p WorkDoneProgressCreateParams) (any, error) {
		if cfg.Progress != nil {
			cfg.Progress.Create(p.Token)
		}

		return nil, nil
	})

	addRequest(b, MethodRegisterCapability, func(_ context.Context, p RegistrationParams) (any, error) {
		for _, reg := range p.Registrations {
			log.Debug("Server registered capability", "id", reg.ID, "method", reg.Method)
		}

		return nil, nil
	})

	addRequest(b, MethodUnregisterCapability, func(_ context.Context, p UnregistrationParams) (any, error) {
		for _, unreg := range p.Unregisterations {
			log.Debug("Server unregistered capability", "id", unreg.ID, "method", unreg.Method)
		}

		return nil, nil
	})

	addNotification(b, MethodPublishDiagnostics, func(_ context.Context, p PublishDiagnosticsParams) error {
		log.Debug("Received diagnostics", "uri", p.URI, "count", len(p.Diagnostics))

		if cfg.OnDiagnostics != nil {
			cfg.OnDiagnostics(p)
		}

		return nil
	})

	addNotification(b, MethodLogMessage, func(_ context.Context, p LogMessageParams) error {
		log.Log(context.Background(), p.Type.Level(), p.Message, "source", "server")

		if cfg.OnLogMessage != nil {
			cfg.OnLogMessage(p)
		}

		return nil
	})

	addNotification(b, MethodShowMessage, func(_ context.Context, p LogMessageParams) error {
		log.Log(context.Background(), p.Type.Level(), p.Message, "source", "server", "show", true)

		return nil
	})

	addNotification(b, MethodProgress, func(_ context.Context, p ProgressParams) error {
		if cfg.Progress == nil {
			return nil
		}

		state := cfg.Progress.Update(p)
		log.Debug("Progress", "token", p.Token, "title", state.Title, "message", state.Message, "done", state.Done)

		return nil
	})

	if err := stderrors.Join(b.errs...); err != nil {
		return nil, nil, fmt.Errorf("build lsp handlers: %w", err)
	}

	return b.requests, b.notifications, nil
}

type handlerBuilder struct {
	requests      map[string]protocol.RequestHandler
	notifications map[string]protocol.NotificationHandler
	errs          []error
}

func addRequest[P, R any](b *handlerBuilder, method string, fn func(context.Context, P) (R, error)) {
	handler, err := protocol.TypedRequestHandler(fn)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", method, err))

		return
	}

	b.requests[method] = handler
}

func addNotification[P any](b *handlerBuilder, method string, fn func(context.Context, P) error) {
	handler, err := protocol.TypedNotificationHandler(fn)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", method, err))

		return
	}

	b.notifications[method] = handler
}

// lookupSection resolves a workspace/configuration section. An empty section
// returns all settings; an unknown one returns nil, which the server sees as
// null.
func lookupSection(settings map[string]any, section string) any {
	if section == "" {
		if settings == nil {
			return nil
		}

		return settings
	}

	if v, ok := settings[section]; ok {
		return v
	}

	var cur any = settings

	for part := range strings.SplitSeq(section, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}

		if cur, ok = m[part]; !ok {
			return nil
		}
	}

	return cur
}
