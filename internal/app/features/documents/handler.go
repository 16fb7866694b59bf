// internal/app/features/documents/handler.go
package documents

import (
	"context"
	"errors"
	"net/http"

	documentstore "github.com/dalemusser/accredithub/internal/app/store/documents"
	"github.com/dalemusser/accredithub/internal/app/system/auditlog"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/app/system/uploads"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes bounds a document upload when no limit is configured.
const DefaultMaxUploadBytes int64 = 20 << 20

// Handler serves document uploads, replacement, pinning and review.
type Handler struct {
	DB             *mongo.Database
	Log            *zap.Logger
	AuditLog       *auditlog.Logger
	Notifier       *review.Notifier
	Uploads        *uploads.Store
	MaxUploadBytes int64
}

func NewHandler(db *mongo.Database, files *uploads.Store, maxUploadBytes int64, audit *auditlog.Logger, notifier *review.Notifier, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		DB:             db,
		Log:            logger,
		AuditLog:       audit,
		Notifier:       notifier,
		Uploads:        files,
		MaxUploadBytes: maxUploadBytes,
	}
}

// documentView adds the public URL of the stored file.
type documentView struct {
	models.Document
	URL string `json:"url"`
}

func (h *Handler) view(d models.Document) documentView {
	return documentView{Document: d, URL: h.Uploads.PublicPath(d.FileName)}
}

// documentFromURL loads the {id} document after the tenancy check.
func (h *Handler) documentFromURL(ctx context.Context, r *http.Request) (models.Document, error) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		return models.Document{}, err
	}
	d, err := documentstore.New(h.DB).GetByID(ctx, id)
	if errors.Is(err, documentstore.ErrNotFound) {
		return models.Document{}, respond.NotFound("document not found")
	}
	if err != nil {
		return models.Document{}, err
	}
	if err := authz.RequireProfile(r, d.OrganizationProfileID); err != nil {
		return models.Document{}, err
	}
	return d, nil
}
