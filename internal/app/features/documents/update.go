// internal/app/features/documents/update.go
package documents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	documentstore "github.com/dalemusser/accredithub/internal/app/store/documents"
	"github.com/dalemusser/accredithub/internal/app/store/orphanedfiles"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/metrics"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/app/system/uploads"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.uber.org/zap"
)

type updateRequest struct {
	Label *string `json:"label" validate:"omitempty,max=200"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /api/documents/{id}  (multipart with optional file, or JSON)           |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdate merges a new label and/or replaces the file. Removing the
// replaced file is best-effort: a failure is logged on the document and
// recorded for the orphan sweeper, and the update still succeeds.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var (
		patch     documentstore.Patch
		multipart = isMultipart(r)
	)
	if multipart {
		if err := h.parseMultipart(w, r); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if _, ok := r.MultipartForm.Value["label"]; ok {
			label := strings.TrimSpace(r.FormValue("label"))
			patch.Label = &label
		}
	} else {
		var req updateRequest
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if err := inputval.Validate(req); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		patch.Label = req.Label
	}
	if patch.Label != nil && (*patch.Label == "" || len(*patch.Label) > maxLabelLen) {
		respond.Error(w, h.Log, inputval.Field("label", "label must be 1 to 200 characters"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.documentFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	var stored *uploads.Stored
	if multipart {
		stored, err = h.saveFormFile(r, d.OrganizationProfileID, true)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if stored != nil {
			patch.File = &documentstore.FileMeta{
				FileName:    stored.Name,
				ContentType: stored.ContentType,
				Size:        stored.Size,
			}
		}
	}

	docs := documentstore.New(h.DB)
	before, after, err := docs.Update(ctx, d.ID, patch, authz.Actor(r))
	if err != nil {
		if stored != nil {
			if rmErr := h.Uploads.Remove(stored.Name); rmErr != nil {
				h.Log.Warn("remove unreferenced upload failed", zap.String("file", stored.Name), zap.Error(rmErr))
			}
		}
		if errors.Is(err, documentstore.ErrNotFound) {
			err = respond.NotFound("document not found")
		}
		respond.Error(w, h.Log, err)
		return
	}

	replaced := stored != nil
	if replaced {
		metrics.DocumentsUploaded.Inc()
		if before.FileName != "" && before.FileName != stored.Name {
			if err := h.Uploads.Remove(before.FileName); err != nil {
				h.fileDeleteFailed(ctx, r, before, err)
				if refreshed, gerr := docs.GetByID(ctx, d.ID); gerr == nil {
					after = refreshed
				}
			}
		}
	}

	h.AuditLog.DocumentUpdated(ctx, r, d.ID, d.OrganizationProfileID, replaced)
	respond.Message(w, "Document updated", h.view(after))
}

// fileDeleteFailed surfaces a replaced file left behind: a log entry on the
// document, an orphan record for the sweeper, a metric and an audit event.
// Each step is independent; one failing does not skip the others.
func (h *Handler) fileDeleteFailed(ctx context.Context, r *http.Request, d models.Document, cause error) {
	h.Log.Warn("failed to delete replaced file",
		zap.String("document_id", d.ID.Hex()),
		zap.String("file", d.FileName),
		zap.Error(cause))
	metrics.FileDeleteFailures.Inc()

	entry := models.DocumentLog{
		Actor:   authz.Actor(r),
		Message: fmt.Sprintf("Failed to delete file %s: %v", d.FileName, cause),
	}
	if err := documentstore.New(h.DB).AppendLog(ctx, d.ID, entry); err != nil {
		h.Log.Error("append document log failed", zap.String("document_id", d.ID.Hex()), zap.Error(err))
	}
	docID := d.ID
	if err := orphanedfiles.New(h.DB).Record(ctx, d.FileName, &docID, cause); err != nil {
		h.Log.Error("record orphaned file failed", zap.String("file", d.FileName), zap.Error(err))
	}
	h.AuditLog.FileDeleteFailed(ctx, r, d.ID, d.OrganizationProfileID, d.FileName, cause)
}
