package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/frahmantamala/workforce-management/internal"
	"github.com/frahmantamala/workforce-management/internal/tenant"
)

// ContextResolver resolves the effective tenant for a bearer token.
type ContextResolver interface {
	ResolveForToken(ctx context.Context, token string) tenant.EffectiveContext
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// TenantScope resolves the caller's effective company and injects it into the
// request context so repositories can scope their queries. Requests without a
// resolvable tenant still pass through; handlers that require scope check for
// an empty company themselves.
func TenantScope(resolver ContextResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved := resolver.ResolveForToken(r.Context(), bearerToken(r))

			ctx := apperrors.ContextWithCompanyID(r.Context(), resolved.CompanyID)
			if resolved.CompanyID != "" {
				logger.Debug("tenant scope resolved",
					"company_id", resolved.CompanyID,
					"source", resolved.Source)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperAdmin blocks requests whose resolved context lacks super admin
// privileges.
func RequireSuperAdmin(resolver ContextResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved := resolver.ResolveForToken(r.Context(), bearerToken(r))

			if !resolved.IsSuperAdmin {
				logger.Warn("access denied: super admin required",
					"source", resolved.Source,
					"company_id", resolved.CompanyID)
				http.Error(w, "Forbidden: super admin required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
