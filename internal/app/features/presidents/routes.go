// internal/app/features/presidents/routes.go
package presidents

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts president profile routes under /api/presidents.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.HandleCreate)
	r.Get("/{profileID}/current", h.ServeCurrent)
	r.Get("/{profileID}/history", h.ServeHistory)
	r.Patch("/{presidentID}", h.HandleUpdate)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.ReviewerRoles...))
		pr.Put("/{presidentID}/review", h.HandleReview)
	})

	return r
}
