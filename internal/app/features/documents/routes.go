// internal/app/features/documents/routes.go
package documents

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts document routes under /api/documents. The per-profile list
// lives under /api/organization-profiles; see ServeListByProfile.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeDocument)
	r.Patch("/{id}", h.HandleUpdate)
	r.Post("/{id}/pin", h.HandleTogglePin)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.ReviewerRoles...))
		pr.Put("/{id}/review", h.HandleReview)
	})

	return r
}
