// internal/app/features/rosters/routes.go
package rosters

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts roster routes under /api/rosters.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/members", h.HandleAddMember)
	r.Patch("/members/{memberID}", h.HandleUpdateMember)
	r.Delete("/members/{memberID}", h.HandleRemoveMember)

	r.Get("/{profileID}", h.ServeRoster)
	r.Post("/{rosterID}/complete", h.HandleComplete)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.ReviewerRoles...))
		pr.Put("/{rosterID}/review", h.HandleReview)
	})

	return r
}
