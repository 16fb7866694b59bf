// internal/app/features/financialreports/reports.go
package financialreports

import (
	"context"
	"net/http"

	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// reportFromURL returns the {profileID} report, creating it on first access.
func (h *Handler) reportFromURL(ctx context.Context, r *http.Request) (models.FinancialReport, error) {
	profileID, err := inputval.ObjectID("profileID", chi.URLParam(r, "profileID"))
	if err != nil {
		return models.FinancialReport{}, err
	}
	if err := h.requireProfile(ctx, r, profileID); err != nil {
		return models.FinancialReport{}, err
	}
	fr, _, err := h.reports().GetOrCreate(ctx, profileID)
	if err != nil {
		return models.FinancialReport{}, err
	}
	h.linkAccreditation(ctx, profileID, fr.ID)
	return fr, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/financial-reports/{profileID}                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fr, err := h.reportFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	v, err := h.view(ctx, fr)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, v)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/financial-reports/{profileID}/monthly                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMonthly(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	fr, err := h.reportFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ledger, err := h.reports().Monthly(ctx, fr)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, ledger)
}
