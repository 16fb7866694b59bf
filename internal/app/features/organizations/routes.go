// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts registration under /api/organizations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/initial-profile", h.HandleInitialProfile)
	return r
}

// ProfileRoutes mounts profile reads and reviews under
// /api/organization-profiles.
func ProfileRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	// student leaders are limited to their own profile inside the handler
	r.Get("/{id}", h.ServeProfile)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.ReviewerRoles...))
		pr.Get("/", h.ServeList)
		pr.Put("/{id}/review", h.HandleReview)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.OfficeRoles...))
		pr.Post("/{id}/allow-reuse", h.HandleAllowReuse)
		pr.Put("/{id}/adviser", h.HandleSetAdviser)
	})

	return r
}
