package middleware

import "context"

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxEmail     contextKey = "email"
)

// SessionIDFromContext returns the access session id set by Auth.
func SessionIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxSessionID)
}

// EmailFromContext returns the authenticated shopper's email.
func EmailFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxEmail)
}

// WithSession injects the session identity; used by Auth and by handler tests.
func WithSession(ctx context.Context, sessionID, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSessionID, sessionID)
	return context.WithValue(ctx, ctxEmail, email)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
