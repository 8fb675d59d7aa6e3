package middleware

import "context"

type contextKey string

const (
	ctxAdminID       contextKey = "admin_id"
	ctxAdminUsername contextKey = "admin_username"
)

// AdminIDFromContext returns the authenticated operator's id, if any.
func AdminIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminID).(string); ok {
		return v
	}
	return ""
}

// AdminUsernameFromContext returns the authenticated operator's username.
func AdminUsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminUsername).(string); ok {
		return v
	}
	return ""
}

// WithAdmin seeds the authenticated operator into the context.
func WithAdmin(ctx context.Context, adminID, username string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAdminID, adminID)
	return context.WithValue(ctx, ctxAdminUsername, username)
}
