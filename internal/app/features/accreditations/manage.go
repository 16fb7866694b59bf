// internal/app/features/accreditations/manage.go
package accreditations

import (
	"context"
	"errors"
	"net/http"

	accreditationstore "github.com/dalemusser/accredithub/internal/app/store/accreditations"
	documentstore "github.com/dalemusser/accredithub/internal/app/store/documents"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type legalRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/accreditations/{profileID}/legal/{kind}                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLinkLegal attaches an uploaded document as one of the legal
// documents. The document must belong to the same profile.
func (h *Handler) HandleLinkLegal(w http.ResponseWriter, r *http.Request) {
	kind := models.LegalDocumentKind(chi.URLParam(r, "kind"))
	if kind.Field() == "" {
		respond.Error(w, h.Log, inputval.Field("kind",
			"kind must be joint-statement, pledge-against-hazing or constitution-and-by-laws"))
		return
	}

	var req legalRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	docID, err := inputval.ObjectID("documentId", req.DocumentID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.profileFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	d, err := documentstore.New(h.DB).GetByID(ctx, docID)
	if errors.Is(err, documentstore.ErrNotFound) || (err == nil && d.OrganizationProfileID != p.ID) {
		respond.Error(w, h.Log, inputval.Field("documentId", "document not found for this organization"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	accs := accreditationstore.New(h.DB)
	a, _, err := accs.GetOrCreateActive(ctx, p.ID, p.OrganizationID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := accs.LinkLegal(ctx, a.ID, kind, docID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	a, err = accs.GetByID(ctx, a.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Message(w, "Document linked", a)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/accreditations/{profileID}/review                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleReview records the overall decision on the active accreditation.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	d, err := review.Decode(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.profileFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	accs := accreditationstore.New(h.DB)
	a, _, err := accs.GetOrCreateActive(ctx, p.ID, p.OrganizationID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	status := d.ReviewStatus()
	if err := accs.SetReview(ctx, a.ID, status); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	a.OverallStatus = status

	d.Count("accreditation")
	h.AuditLog.ReviewDecision(ctx, r, "accreditation", a.ID, p.ID, status.String(), d.RevisionNotes)
	h.Notifier.Notify(ctx, p, "Accreditation", status.String(), d.RevisionNotes)
	respond.Message(w, "Review saved", a)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/accreditations/{profileID}/deactivate                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDeactivate ends the current cycle. The next read provisions a new
// active accreditation.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.profileFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	id, err := accreditationstore.New(h.DB).Deactivate(ctx, p.ID)
	if errors.Is(err, accreditationstore.ErrNotFound) {
		respond.Error(w, h.Log, respond.NotFound("no active accreditation"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	h.AuditLog.AccreditationDeactivated(ctx, r, id, p.ID)
	respond.Message(w, "Accreditation deactivated", map[string]string{"id": id.Hex()})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/accreditations/{profileID}/history                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.profileFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	list, err := accreditationstore.New(h.DB).History(ctx, p.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, list)
}
