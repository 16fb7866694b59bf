// internal/app/features/accreditations/routes.go
package accreditations

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts accreditation routes under /api/accreditations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/{profileID}", h.ServeAccreditation)
	r.Get("/{profileID}/status", h.ServeApprovalStatus)
	r.Put("/{profileID}/legal/{kind}", h.HandleLinkLegal)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.ReviewerRoles...))
		pr.Put("/{profileID}/review", h.HandleReview)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.OfficeRoles...))
		pr.Get("/{profileID}/history", h.ServeHistory)
		pr.Post("/{profileID}/deactivate", h.HandleDeactivate)
	})

	return r
}
