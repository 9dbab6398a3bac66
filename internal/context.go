package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextClientKey ctxKey = "clientID"

// CLIClientID is the session scope shared by CLI commands.
const CLIClientID = "cli"

// DefaultRequestTimeout bounds a store call when the caller supplies no timeout.
const DefaultRequestTimeout = 30 * time.Second

type anonymousScope struct{}

// ClientIDFromContext returns the session scope of the caller. The empty string is the
// process-wide scope, and also what an anonymous context reports.
func ClientIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if clientID, ok := ctx.Value(ContextClientKey).(string); ok {
		return clientID
	}
	return ""
}

func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ContextClientKey, clientID)
}

// ContextAnonymous marks a request that presented no session token. An anonymous
// context never resolves to a stored session, not even the process-wide one.
// ContextWithClientID on top of it lifts the mark.
func ContextAnonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextClientKey, anonymousScope{})
}

func IsAnonymous(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx.Value(ContextClientKey).(anonymousScope)
	return ok
}

// WithTimeout returns a context with timeout, defaulting to DefaultRequestTimeout if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, duration)
}

const ContextTraceKey ctxKey = "traceID"

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ContextTraceKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(ContextTraceKey).(string); ok {
		return traceID
	}
	return ""
}

const ContextActorKey ctxKey = "actorID"

// ContextWithActorID records the user id acting on the request, once a guard admitted it.
func ContextWithActorID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextActorKey, userID)
}

func ActorIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(ContextActorKey).(string); ok {
		return userID
	}
	return ""
}
