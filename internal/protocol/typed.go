package protocol

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/lsp-client-go/internal/errors"
)

// TypedRequestHandler adapts fn into a RequestHandler that validates and
// decodes params as P.
//
// The JSON schema for P is inferred once, when the handler is built. Params
// that fail validation or decoding are answered with an InvalidParams error
// without calling fn. P should be a struct type.
func TypedRequestHandler[P, R any](fn func(ctx context.Context, params P) (R, error)) (RequestHandler, error) {
	resolved, err := paramsSchema[P]()
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		params, err := decodeParams[P](raw, resolved)
		if err != nil {
			return nil, err
		}

		return fn(ctx, params)
	}, nil
}

// TypedNotificationHandler adapts fn into a NotificationHandler that validates
// and decodes params as P. Invalid params are reported as the handler error.
func TypedNotificationHandler[P any](fn func(ctx context.Context, params P) error) (NotificationHandler, error) {
	resolved, err := paramsSchema[P]()
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, raw json.RawMessage) error {
		params, err := decodeParams[P](raw, resolved)
		if err != nil {
			return err
		}

		return fn(ctx, params)
	}, nil
}

func paramsSchema[P any]() (*jsonschema.Resolved, error) {
	schema, err := jsonschema.For[P](nil)
	if err != nil {
		return nil, fmt.Errorf("infer params schema: %w", err)
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve params schema: %w", err)
	}

	return resolved, nil
}

func decodeParams[P any](raw json.RawMessage, resolved *jsonschema.Resolved) (P, error) {
	var params P

	// Omitted params are validated as an empty object.
	var instance any = map[string]any{}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &instance); err != nil {
			return params, errors.NewResponseError(errors.CodeInvalidParams, "decode params: %v", err)
		}
	}

	if err := resolved.Validate(instance); err != nil {
		return params, errors.NewResponseError(errors.CodeInvalidParams, "invalid params: %v", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return params, errors.NewResponseError(errors.CodeInvalidParams, "decode params: %v", err)
		}
	}

	return params, nil
}
