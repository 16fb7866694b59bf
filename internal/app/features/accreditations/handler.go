// internal/app/features/accreditations/handler.go
package accreditations

import (
	"context"
	"errors"
	"net/http"

	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	"github.com/dalemusser/accredithub/internal/app/system/auditlog"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the accreditation case file of an organization profile.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
	Notifier *review.Notifier
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, notifier *review.Notifier, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		AuditLog: audit,
		Notifier: notifier,
	}
}

// profileFromURL loads the {profileID} profile after the tenancy check.
func (h *Handler) profileFromURL(ctx context.Context, r *http.Request) (models.OrganizationProfile, error) {
	id, err := inputval.ObjectID("profileID", chi.URLParam(r, "profileID"))
	if err != nil {
		return models.OrganizationProfile{}, err
	}
	if err := authz.RequireProfile(r, id); err != nil {
		return models.OrganizationProfile{}, err
	}
	p, err := profilestore.New(h.DB).GetByID(ctx, id)
	if errors.Is(err, profilestore.ErrNotFound) {
		return models.OrganizationProfile{}, respond.NotFound("organization profile not found")
	}
	return p, err
}
