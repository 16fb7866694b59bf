// internal/app/features/registration/routes.go
package registration

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/auth/register.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/code", h.HandleRequestCode)
	r.Post("/", h.HandleRegister)
	return r
}

// StaffRoutes is mounted at /api/auth/staff.
func StaffRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(authz.OfficeRoles...))
	r.Post("/", h.HandleCreateStaff)
	return r
}
