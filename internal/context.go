package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextUserKey    ctxKey = "userID"
	ContextCompanyKey ctxKey = "companyID"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(ContextUserKey).(string); ok {
		return userID
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}

// CompanyIDFromContext returns the effective tenant scope injected by the
// tenant middleware, or empty when the caller is unscoped.
func CompanyIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if companyID, ok := ctx.Value(ContextCompanyKey).(string); ok {
		return companyID
	}
	return ""
}

func ContextWithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, ContextCompanyKey, companyID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
