// internal/app/features/presidents/handler.go
package presidents

import (
	"context"
	"errors"
	"net/http"

	presidentstore "github.com/dalemusser/accredithub/internal/app/store/presidents"
	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	"github.com/dalemusser/accredithub/internal/app/system/auditlog"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

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

// loadProfile resolves an organization profile id after the tenancy check.
func (h *Handler) loadProfile(ctx context.Context, r *http.Request, id primitive.ObjectID) (models.OrganizationProfile, error) {
	if err := authz.RequireProfile(r, id); err != nil {
		return models.OrganizationProfile{}, err
	}
	p, err := profilestore.New(h.DB).GetByID(ctx, id)
	if errors.Is(err, profilestore.ErrNotFound) {
		return models.OrganizationProfile{}, respond.NotFound("organization profile not found")
	}
	return p, err
}

// presidentFromURL loads the {presidentID} president after the tenancy check.
func (h *Handler) presidentFromURL(ctx context.Context, r *http.Request) (models.PresidentProfile, error) {
	id, err := inputval.ObjectID("presidentID", chi.URLParam(r, "presidentID"))
	if err != nil {
		return models.PresidentProfile{}, err
	}
	p, err := presidentstore.New(h.DB).GetByID(ctx, id)
	if errors.Is(err, presidentstore.ErrNotFound) {
		return models.PresidentProfile{}, respond.NotFound("president profile not found")
	}
	if err != nil {
		return models.PresidentProfile{}, err
	}
	if err := authz.RequireProfile(r, p.OrganizationProfileID); err != nil {
		return models.PresidentProfile{}, err
	}
	return p, nil
}
