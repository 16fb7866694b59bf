// internal/app/features/organizations/profiles.go
package organizations

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

const maxListLimit = 200

// loadProfile resolves the {id} URL param into a profile, enforcing tenancy
// for student leaders.
func (h *Handler) loadProfile(ctx context.Context, r *http.Request) (models.OrganizationProfile, error) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
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

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/organization-profiles/{id}                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.loadProfile(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/organization-profiles?status=&active=&limit=&offset=                |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList lists profiles for reviewers, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := profilestore.ListFilter{
		ActiveOnly: q.Get("active") != "false",
		Status:     q.Get("status"),
	}
	if f.Status != "" {
		if _, err := models.ParseReviewStatus(f.Status); err != nil {
			respond.Error(w, h.Log, inputval.Field("status", "unknown status"))
			return
		}
	}
	if v := q.Get("organizationId"); v != "" {
		oid, err := inputval.ObjectID("organizationId", v)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		f.OrganizationID = &oid
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			respond.Error(w, h.Log, inputval.Field("limit", "limit must be a positive number"))
			return
		}
		f.Limit = min(n, maxListLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			respond.Error(w, h.Log, inputval.Field("offset", "offset must not be negative"))
			return
		}
		f.Offset = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := profilestore.New(h.DB).List(ctx, f)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, list)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/organization-profiles/{id}/review                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	d, err := review.Decode(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.loadProfile(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	status := d.ReviewStatus()
	if err := profilestore.New(h.DB).SetReview(ctx, p.ID, status, d.RevisionNotes); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p.OverallStatus = status
	p.RevisionNotes = d.RevisionNotes

	d.Count("organization_profile")
	h.AuditLog.ReviewDecision(ctx, r, "organization_profile", p.ID, p.ID, status.String(), d.RevisionNotes)
	h.Notifier.Notify(ctx, p, "Organization profile", status.String(), d.RevisionNotes)
	respond.Message(w, "Review saved", p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/organization-profiles/{id}/allow-reuse                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAllowReuse lets the next registration with the same acronym or name
// replace this profile.
func (h *Handler) HandleAllowReuse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.loadProfile(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if !p.IsActive {
		respond.Error(w, h.Log, respond.Conflict("PROFILE_INACTIVE", "only the active profile can be released for reuse"))
		return
	}
	if err := profilestore.New(h.DB).AllowReuse(ctx, p.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p.IsAllowedForReuse = true

	h.AuditLog.ProfileReuseAllowed(ctx, r, p.ID)
	respond.Message(w, "Profile released for reuse", p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/organization-profiles/{id}/adviser                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type adviserRequest struct {
	AdviserID string `json:"adviserId" validate:"required"`
}

func (h *Handler) HandleSetAdviser(w http.ResponseWriter, r *http.Request) {
	var req adviserRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	adviserID, err := inputval.ObjectID("adviserId", req.AdviserID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.loadProfile(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.checkAdviser(ctx, adviserID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := profilestore.New(h.DB).SetAdviser(ctx, p.ID, adviserID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p.AdviserID = &adviserID
	respond.Message(w, "Adviser assigned", p)
}

