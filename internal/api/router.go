package api

import (
	"net/http"

	mw "github.com/empresahub/console/internal/api/middleware"
	"github.com/empresahub/console/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// Dependencies holds all handler and middleware dependencies for the router.
// Tenant-scoped handlers do their own authorization via the gate; the router
// only guarantees an authenticated principal is on the context.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	ContextHandler http.HandlerFunc

	ListModulesHandler  http.HandlerFunc
	ToggleModuleHandler http.HandlerFunc

	ListAuditHandler http.HandlerFunc

	ProvisionMemberHandler  http.HandlerFunc
	DeactivateMemberHandler http.HandlerFunc

	GetSettingsHandler    http.HandlerFunc
	UpdateSettingsHandler http.HandlerFunc

	CreateTokenHandler http.HandlerFunc
	RevokeTokenHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Get("/api/v1/context", orNotImplemented(deps.ContextHandler))

		r.Get("/api/v1/tenants/{tenantID}/modules", orNotImplemented(deps.ListModulesHandler))
		r.Put("/api/v1/tenants/{tenantID}/modules/{moduleID}", orNotImplemented(deps.ToggleModuleHandler))

		r.Get("/api/v1/tenants/{tenantID}/audit", orNotImplemented(deps.ListAuditHandler))

		r.Post("/api/v1/tenants/{tenantID}/members", orNotImplemented(deps.ProvisionMemberHandler))
		r.Delete("/api/v1/tenants/{tenantID}/members/{membershipID}", orNotImplemented(deps.DeactivateMemberHandler))

		r.Get("/api/v1/tenants/{tenantID}/settings", orNotImplemented(deps.GetSettingsHandler))
		r.Put("/api/v1/tenants/{tenantID}/settings", orNotImplemented(deps.UpdateSettingsHandler))

		r.Post("/api/v1/tokens", orNotImplemented(deps.CreateTokenHandler))
		r.Delete("/api/v1/tokens/{tokenID}", orNotImplemented(deps.RevokeTokenHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
