// internal/app/features/financialreports/receipts.go
package financialreports

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	documentstore "github.com/dalemusser/accredithub/internal/app/store/documents"
	financialreportstore "github.com/dalemusser/accredithub/internal/app/store/financialreports"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/metrics"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type receiptRequest struct {
	OrganizationProfileID string       `json:"organizationProfileId"`
	FinancialReportID     string       `json:"financialReportId"`
	DocumentID            string       `json:"documentId"`
	Type                  string       `json:"type" validate:"required,oneof=reimbursement disbursement"`
	Description           string       `json:"description" validate:"required,max=500"`
	Amount                models.Money `json:"amount" validate:"gt=0"`
	ExpenseType           string       `json:"expenseType" validate:"max=100"`
	Date                  *time.Time   `json:"date"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/financial-reports/receipts                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAddReceipt records a reimbursement or disbursement. Every receipt is
// backed by a document of the same profile; the request is rejected before
// anything is written when it is not.
func (h *Handler) HandleAddReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.Description = strings.TrimSpace(req.Description)
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	profileID, err := inputval.ObjectID("organizationProfileId", req.OrganizationProfileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	docID, err := inputval.ObjectID("documentId", req.DocumentID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	reportID, err := inputval.OptionalObjectID("financialReportId", req.FinancialReportID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.requireProfile(ctx, r, profileID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	doc, err := documentstore.New(h.DB).GetByID(ctx, docID)
	if errors.Is(err, documentstore.ErrNotFound) || (err == nil && doc.OrganizationProfileID != profileID) {
		respond.Error(w, h.Log, inputval.Field("documentId", "document not found for this organization profile"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	store := h.reports()
	var fr models.FinancialReport
	if reportID != nil {
		fr, err = store.GetByID(ctx, *reportID)
		if errors.Is(err, financialreportstore.ErrNotFound) {
			respond.Error(w, h.Log, respond.NotFound("financial report not found"))
			return
		}
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if fr.OrganizationProfileID != profileID {
			respond.Error(w, h.Log, inputval.Field("financialReportId", "financial report belongs to another organization profile"))
			return
		}
	} else {
		fr, _, err = store.GetOrCreate(ctx, profileID)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
	}
	h.linkAccreditation(ctx, profileID, fr.ID)

	rc := models.Receipt{
		Kind:        models.ReceiptKind(req.Type),
		Description: req.Description,
		Amount:      req.Amount,
		ExpenseType: req.ExpenseType,
		DocumentID:  doc.ID,
	}
	if req.Date != nil {
		rc.Date = req.Date.UTC()
	}
	rc, fr, err = store.AddReceipt(ctx, fr.ID, rc)
	if errors.Is(err, financialreportstore.ErrInvalidReceipt) {
		respond.Error(w, h.Log, inputval.Field("receipt", err.Error()))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	metrics.Receipts.WithLabelValues(string(rc.Kind)).Inc()
	h.AuditLog.ReceiptAdded(ctx, r, rc.ID, profileID, string(rc.Kind), rc.Amount.String())

	v, err := h.view(ctx, fr)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, "Receipt added", v)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /api/financial-reports/receipts/{receiptID}                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRemoveReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("receiptID", chi.URLParam(r, "receiptID"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := h.reports()
	rc, err := store.GetReceipt(ctx, id)
	if errors.Is(err, financialreportstore.ErrReceiptNotFound) {
		respond.Error(w, h.Log, respond.NotFound("receipt not found"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	fr, err := store.GetByID(ctx, rc.FinancialReportID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := authz.RequireProfile(r, fr.OrganizationProfileID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	rc, fr, err = store.RemoveReceipt(ctx, rc.ID)
	if errors.Is(err, financialreportstore.ErrReceiptNotFound) {
		respond.Error(w, h.Log, respond.NotFound("receipt not found"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.ReceiptRemoved(ctx, r, rc.ID, fr.OrganizationProfileID, string(rc.Kind), rc.Amount.String())

	v, err := h.view(ctx, fr)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Message(w, "Receipt removed", v)
}
