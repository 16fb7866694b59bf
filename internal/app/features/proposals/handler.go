// internal/app/features/proposals/handler.go
package proposals

import (
	"context"
	"errors"
	"net/http"

	documentstore "github.com/dalemusser/accredithub/internal/app/store/documents"
	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	proposalstore "github.com/dalemusser/accredithub/internal/app/store/proposals"
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

// Handler serves action plans, the proposals filed under them, and the
// conduct records of approved proposals.
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

// requireDocuments checks that every id names a document of profileID.
func (h *Handler) requireDocuments(ctx context.Context, field string, profileID primitive.ObjectID, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	docs, err := documentstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[primitive.ObjectID]bool, len(docs))
	for _, d := range docs {
		if d.OrganizationProfileID == profileID {
			found[d.ID] = true
		}
	}
	for _, id := range ids {
		if !found[id] {
			return inputval.Field(field, "document not found for this organization profile")
		}
	}
	return nil
}

func (h *Handler) planFromURL(ctx context.Context, r *http.Request) (models.ProposedActionPlan, error) {
	id, err := inputval.ObjectID("planID", chi.URLParam(r, "planID"))
	if err != nil {
		return models.ProposedActionPlan{}, err
	}
	plan, err := proposalstore.New(h.DB).GetPlan(ctx, id)
	if errors.Is(err, proposalstore.ErrPlanNotFound) {
		return models.ProposedActionPlan{}, respond.NotFound("action plan not found")
	}
	if err != nil {
		return models.ProposedActionPlan{}, err
	}
	if err := authz.RequireProfile(r, plan.OrganizationProfileID); err != nil {
		return models.ProposedActionPlan{}, err
	}
	return plan, nil
}

func (h *Handler) proposalFromURL(ctx context.Context, r *http.Request) (models.Proposal, error) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		return models.Proposal{}, err
	}
	p, err := proposalstore.New(h.DB).GetProposal(ctx, id)
	if errors.Is(err, proposalstore.ErrProposalNotFound) {
		return models.Proposal{}, respond.NotFound("proposal not found")
	}
	if err != nil {
		return models.Proposal{}, err
	}
	if err := authz.RequireProfile(r, p.OrganizationProfileID); err != nil {
		return models.Proposal{}, err
	}
	return p, nil
}

func (h *Handler) conductFromURL(ctx context.Context, r *http.Request) (models.ProposalConduct, error) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		return models.ProposalConduct{}, err
	}
	c, err := proposalstore.New(h.DB).GetConduct(ctx, id)
	if errors.Is(err, proposalstore.ErrConductNotFound) {
		return models.ProposalConduct{}, respond.NotFound("conduct not found")
	}
	if err != nil {
		return models.ProposalConduct{}, err
	}
	if err := authz.RequireProfile(r, c.OrganizationProfileID); err != nil {
		return models.ProposalConduct{}, err
	}
	return c, nil
}

// notify emails the profile's address about a review. Lookup failures only
// skip the notice.
func (h *Handler) notify(ctx context.Context, profileID primitive.ObjectID, section, status, notes string) {
	if h.Notifier == nil {
		return
	}
	p, err := profilestore.New(h.DB).GetByID(ctx, profileID)
	if err != nil {
		h.Log.Warn("review notice skipped", zap.String("profile_id", profileID.Hex()), zap.Error(err))
		return
	}
	h.Notifier.Notify(ctx, p, section, status, notes)
}
