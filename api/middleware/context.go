package middleware

import "context"

type contextKey string

const (
	ctxAdminSubject contextKey = "admin_subject"
	ctxAuthMethod   contextKey = "auth_method"
	ctxRequestID    contextKey = "request_id"
)

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxRequestID).(string)
	return v
}

// AdminSubjectFromContext returns the authorized admin subject, if any.
func AdminSubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminSubject).(string); ok {
		return v
	}
	return ""
}

func AuthMethodFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAuthMethod).(string); ok {
		return v
	}
	return ""
}

// WithAdmin injects the admin identity into the context.
func WithAdmin(ctx context.Context, subject, method string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAdminSubject, subject)
	return context.WithValue(ctx, ctxAuthMethod, method)
}
