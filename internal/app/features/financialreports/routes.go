// internal/app/features/financialreports/routes.go
package financialreports

import (
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts financial report routes under /api/financial-reports.
// Tenancy is checked per request against the report's profile.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/receipts", h.HandleAddReceipt)
	r.Delete("/receipts/{receiptID}", h.HandleRemoveReceipt)
	r.Get("/{profileID}", h.ServeReport)
	r.Get("/{profileID}/monthly", h.ServeMonthly)

	return r
}
