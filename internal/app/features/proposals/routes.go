// internal/app/features/proposals/routes.go
package proposals

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// PlanRoutes mounts under /api/action-plans.
func PlanRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.HandleCreatePlan)
	r.Get("/{planID}", h.ServePlan)
	r.Post("/{planID}/proposals", h.HandleSubmit)

	return r
}

// ProposalRoutes mounts under /api/proposals.
func ProposalRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/{id}", h.ServeProposal)
	r.Patch("/{id}", h.HandleUpdateProposal)
	r.Post("/{id}/conduct", h.HandleCreateConduct)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.ReviewerRoles...))
		pr.Put("/{id}/review", h.HandleReviewProposal)
	})

	return r
}

// ConductRoutes mounts under /api/conducts.
func ConductRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeConductsByProfile)
	r.Get("/{id}", h.ServeConduct)
	r.Patch("/{id}", h.HandleUpdateConduct)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.ReviewerRoles...))
		pr.Put("/{id}/review", h.HandleReviewConduct)
	})

	return r
}
