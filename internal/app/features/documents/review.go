// internal/app/features/documents/review.go
package documents

import (
	"context"
	"net/http"

	documentstore "github.com/dalemusser/accredithub/internal/app/store/documents"
	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
)

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/documents/{id}/review                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	dec, err := review.Decode(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.documentFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	status := dec.ReviewStatus()
	d, err = documentstore.New(h.DB).SetReview(ctx, d.ID, status, dec.RevisionNotes, authz.Actor(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	dec.Count("document")
	h.AuditLog.ReviewDecision(ctx, r, "document", d.ID, d.OrganizationProfileID, status.String(), dec.RevisionNotes)
	if p, err := profilestore.New(h.DB).GetByID(ctx, d.OrganizationProfileID); err == nil {
		h.Notifier.Notify(ctx, p, "Document: "+d.Label, status.String(), dec.RevisionNotes)
	}
	respond.Message(w, "Review saved", h.view(d))
}
