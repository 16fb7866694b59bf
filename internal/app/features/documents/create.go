// internal/app/features/documents/create.go
package documents

import (
	"context"
	"errors"
	"net/http"
	"strings"

	documentstore "github.com/dalemusser/accredithub/internal/app/store/documents"
	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/metrics"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxLabelLen = 200

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/documents  (multipart: file, label, organizationProfileId)         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	label := strings.TrimSpace(r.FormValue("label"))
	if label == "" {
		respond.Error(w, h.Log, inputval.Required("label"))
		return
	}
	if len(label) > maxLabelLen {
		respond.Error(w, h.Log, inputval.Field("label", "label is too long"))
		return
	}
	profileID, err := inputval.ObjectID("organizationProfileId", r.FormValue("organizationProfileId"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := authz.RequireProfile(r, profileID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ok, err := profilestore.New(h.DB).Exists(ctx, profileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if !ok {
		respond.Error(w, h.Log, respond.NotFound("organization profile not found"))
		return
	}

	stored, err := h.saveFormFile(r, profileID, false)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	d, err := documentstore.New(h.DB).Create(ctx, models.Document{
		OrganizationProfileID: profileID,
		Label:                 label,
		FileName:              stored.Name,
		ContentType:           stored.ContentType,
		Size:                  stored.Size,
	}, authz.Actor(r))
	if err != nil {
		// nothing references the file yet
		if rmErr := h.Uploads.Remove(stored.Name); rmErr != nil {
			h.Log.Warn("remove unreferenced upload failed", zap.String("file", stored.Name), zap.Error(rmErr))
		}
		respond.Error(w, h.Log, err)
		return
	}

	metrics.DocumentsUploaded.Inc()
	respond.Created(w, "Document uploaded", h.view(d))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/documents/{id}                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.documentFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, h.view(d))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/organization-profiles/{id}/documents                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeListByProfile lists a profile's documents, pinned first then newest.
func (h *Handler) ServeListByProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := authz.RequireProfile(r, profileID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := documentstore.New(h.DB).ListByProfile(ctx, profileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	out := make([]documentView, 0, len(list))
	for _, d := range list {
		out = append(out, h.view(d))
	}
	respond.OK(w, out)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/documents/{id}/pin                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleTogglePin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.documentFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	d, err = documentstore.New(h.DB).TogglePin(ctx, d.ID)
	if errors.Is(err, documentstore.ErrNotFound) {
		respond.Error(w, h.Log, respond.NotFound("document not found"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, h.view(d))
}
