// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log under /api/audit.
//
// The full log is for the accreditation office. Reviewers may read the
// history of a single record.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.ReviewerRoles...))
		pr.Get("/targets/{id}", h.ServeTargetHistory)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(authz.OfficeRoles...))
		pr.Get("/", h.ServeList)
		pr.Get("/event-types", h.ServeEventTypes)
	})

	return r
}
