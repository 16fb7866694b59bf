// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts login, logout and the current-session endpoint. Registration shares
// the /api/auth prefix and is mounted by the registration feature.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.With(sm.RequireSignedIn).Get("/me", h.ServeMe)
	return r
}
