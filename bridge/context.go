/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import "context"

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyCommand
	ctxKeyIdempotentHint
)

func getStringFromContext(ctx context.Context, key ctxKey) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

// NewContextWithRequestID creates a new context with request ID that is sent in X-Request-ID header.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestIDFromContext extracts request ID from the context.
func GetRequestIDFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyRequestID)
}

// NewContextWithCommand creates a new context with the name of the invoked command.
func NewContextWithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, ctxKeyCommand, command)
}

// GetCommandFromContext extracts the name of the invoked command from the context.
func GetCommandFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyCommand)
}

// NewContextWithIdempotentHint returns a derived context that marks the call as idempotent (or not),
// overriding the client's list of idempotent commands. Only idempotent calls are retried.
func NewContextWithIdempotentHint(ctx context.Context, isIdempotent bool) context.Context {
	return context.WithValue(ctx, ctxKeyIdempotentHint, isIdempotent)
}

func getIdempotentHintFromContext(ctx context.Context) (isIdempotent, ok bool) {
	isIdempotent, ok = ctx.Value(ctxKeyIdempotentHint).(bool)
	return
}
