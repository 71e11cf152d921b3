package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/workforce-management/internal/auth"
	"github.com/frahmantamala/workforce-management/internal/tenant"
	"github.com/frahmantamala/workforce-management/internal/transport/middleware"
	"github.com/frahmantamala/workforce-management/internal/transport/swagger"
	"github.com/frahmantamala/workforce-management/internal/worktime"
)

// RegisterAllRoutes wires every handler into the router. The tenant resolver
// doubles as the middleware scope/gate provider.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	tenantHandler *tenant.Handler,
	tenantService tenant.ServiceAPI,
	worktimeHandler *worktime.Handler,
	allowedOrigins string,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORSWithOrigins(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Work-time model catalog is readable without authentication so
		// clients can render rule sets on login screens.
		if worktimeHandler != nil {
			r.Get("/work-time-models", worktimeHandler.ListModels)
		}

		if authHandler != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)
				pr.Use(middleware.TenantScope(tenantService, logger))

				if tenantHandler != nil {
					pr.Route("/tenant", func(tr chi.Router) {
						tr.Get("/context", tenantHandler.GetContext)
						tr.Get("/context/audit", tenantHandler.GetContextAudit)
						tr.Post("/impersonation", tenantHandler.StartImpersonation)
						tr.Delete("/impersonation", tenantHandler.StopImpersonation)
						tr.Post("/session", tenantHandler.StartTenantSession)
						tr.Delete("/session", tenantHandler.StopTenantSession)
					})
				}

				if worktimeHandler != nil {
					pr.Route("/time-entries", func(er chi.Router) {
						er.Post("/", worktimeHandler.CreateEntry)
						er.Post("/validate", worktimeHandler.ValidateEntry)
						er.Get("/", worktimeHandler.ListEntries)
						er.Get("/summary", worktimeHandler.WeeklySummary)
						er.Patch("/{id}/close", worktimeHandler.CloseEntry)
					})

					// Catalog administration is restricted to super admins.
					pr.Group(func(mr chi.Router) {
						mr.Use(middleware.RequireSuperAdmin(tenantService, logger))
						mr.Post("/work-time-models", worktimeHandler.CreateModel)
						mr.Patch("/employees/{userID}/work-time-model", worktimeHandler.AssignModel)
					})
				}
			})
		}
	})
}
