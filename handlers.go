package lspclient

import (
	"context"

	"github.com/wagiedev/lsp-client-go/internal/protocol"
)

// TypedRequestHandler adapts fn into a RequestHandler. Params are validated
// against a JSON schema inferred from P; a mismatch is answered with an
// InvalidParams error without calling fn.
func TypedRequestHandler[P, R any](fn func(ctx context.Context, params P) (R, error)) (RequestHandler, error) {
	return protocol.TypedRequestHandler(fn)
}

// TypedNotificationHandler adapts fn into a NotificationHandler. Invalid
// params are logged and dropped.
func TypedNotificationHandler[P any](fn func(ctx context.Context, params P) error) (NotificationHandler, error) {
	return protocol.TypedNotificationHandler(fn)
}
