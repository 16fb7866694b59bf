// internal/app/features/rosters/handler.go
package rosters

import (
	"context"
	"errors"
	"net/http"

	accreditationstore "github.com/dalemusser/accredithub/internal/app/store/accreditations"
	rosterstore "github.com/dalemusser/accredithub/internal/app/store/rosters"
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

// Handler serves rosters and their members.
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

// rosterView is a roster with its members and officers resolved.
type rosterView struct {
	models.Roster
	Members  []models.RosterMember `json:"members"`
	Officers []models.RosterMember `json:"officers"`
}

func (h *Handler) view(ctx context.Context, r models.Roster) (rosterView, error) {
	members, err := rosterstore.New(h.DB).Members(ctx, r.ID)
	if err != nil {
		return rosterView{}, err
	}
	officers := []models.RosterMember{}
	for _, m := range members {
		if m.IsOfficer() {
			officers = append(officers, m)
		}
	}
	return rosterView{Roster: r, Members: members, Officers: officers}, nil
}

// rosterFromURL loads the {rosterID} roster after the tenancy check.
func (h *Handler) rosterFromURL(ctx context.Context, r *http.Request) (models.Roster, error) {
	id, err := inputval.ObjectID("rosterID", chi.URLParam(r, "rosterID"))
	if err != nil {
		return models.Roster{}, err
	}
	ros, err := rosterstore.New(h.DB).GetByID(ctx, id)
	if errors.Is(err, rosterstore.ErrNotFound) {
		return models.Roster{}, respond.NotFound("roster not found")
	}
	if err != nil {
		return models.Roster{}, err
	}
	if err := authz.RequireProfile(r, ros.OrganizationProfileID); err != nil {
		return models.Roster{}, err
	}
	return ros, nil
}

// memberFromURL loads the {memberID} member and its roster after the
// tenancy check.
func (h *Handler) memberFromURL(ctx context.Context, r *http.Request) (models.RosterMember, models.Roster, error) {
	id, err := inputval.ObjectID("memberID", chi.URLParam(r, "memberID"))
	if err != nil {
		return models.RosterMember{}, models.Roster{}, err
	}
	store := rosterstore.New(h.DB)
	m, err := store.GetMember(ctx, id)
	if errors.Is(err, rosterstore.ErrMemberNotFound) {
		return models.RosterMember{}, models.Roster{}, respond.NotFound("roster member not found")
	}
	if err != nil {
		return models.RosterMember{}, models.Roster{}, err
	}
	ros, err := store.GetByID(ctx, m.RosterID)
	if err != nil {
		return models.RosterMember{}, models.Roster{}, err
	}
	if err := authz.RequireProfile(r, ros.OrganizationProfileID); err != nil {
		return models.RosterMember{}, models.Roster{}, err
	}
	return m, ros, nil
}

// linkAccreditation records the roster on the active accreditation when the
// link is still empty. The roster write already happened, so a failure is
// only logged; the next accreditation read backfills it.
func (h *Handler) linkAccreditation(ctx context.Context, profileID, rosterID primitive.ObjectID) {
	if _, err := accreditationstore.New(h.DB).LinkIfUnset(ctx, profileID, accreditationstore.LinkRoster, rosterID); err != nil {
		h.Log.Warn("link roster to accreditation failed",
			zap.String("profile_id", profileID.Hex()),
			zap.String("roster_id", rosterID.Hex()),
			zap.Error(err))
	}
}
