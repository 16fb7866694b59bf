// internal/app/features/rosters/roster.go
package rosters

import (
	"context"
	"net/http"

	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	rosterstore "github.com/dalemusser/accredithub/internal/app/store/rosters"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// requireProfile checks tenancy and that the profile exists.
func (h *Handler) requireProfile(ctx context.Context, r *http.Request, profileID primitive.ObjectID) error {
	if err := authz.RequireProfile(r, profileID); err != nil {
		return err
	}
	ok, err := profilestore.New(h.DB).Exists(ctx, profileID)
	if err != nil {
		return err
	}
	if !ok {
		return respond.NotFound("organization profile not found")
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/rosters/{profileID}                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoster returns the profile's roster, creating an empty one on first
// access.
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
	profileID, err := inputval.ObjectID("profileID", chi.URLParam(r, "profileID"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.requireProfile(ctx, r, profileID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ros, _, err := rosterstore.New(h.DB).GetOrCreate(ctx, profileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.linkAccreditation(ctx, profileID, ros.ID)

	v, err := h.view(ctx, ros)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, v)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/rosters/{rosterID}/review                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	d, err := review.Decode(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ros, err := h.rosterFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	status := d.ReviewStatus()
	ros, err = rosterstore.New(h.DB).SetReview(ctx, ros.ID, status, d.RevisionNotes)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	d.Count("roster")
	h.AuditLog.ReviewDecision(ctx, r, "roster", ros.ID, ros.OrganizationProfileID, status.String(), d.RevisionNotes)
	if p, err := profilestore.New(h.DB).GetByID(ctx, ros.OrganizationProfileID); err == nil {
		h.Notifier.Notify(ctx, p, "Roster", status.String(), d.RevisionNotes)
	}
	respond.Message(w, "Review saved", ros)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/rosters/{rosterID}/complete                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleComplete marks the roster complete. There is no way back.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ros, err := h.rosterFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if ros.IsComplete {
		respond.Message(w, "Roster already complete", ros)
		return
	}
	ros, err = rosterstore.New(h.DB).MarkComplete(ctx, ros.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.RosterCompleted(ctx, r, ros.ID, ros.OrganizationProfileID)
	respond.Message(w, "Roster marked complete", ros)
}
