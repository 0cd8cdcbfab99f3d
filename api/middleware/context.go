package middleware

import "context"

type contextKey string

const (
	ctxSessionID    contextKey = "session_id"
	ctxSessionFresh contextKey = "session_fresh"
)

// SessionIDFromContext returns the session id seeded by the Session middleware.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects the session identifier into the context for downstream handlers.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// SessionIssuedOnRequest reports whether the Session middleware minted the session
// while handling the current request.
func SessionIssuedOnRequest(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	fresh, _ := ctx.Value(ctxSessionFresh).(bool)
	return fresh
}

func withFreshSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxSessionFresh, true)
}
