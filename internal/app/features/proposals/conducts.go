// internal/app/features/proposals/conducts.go
package proposals

import (
	"context"
	"net/http"

	proposalstore "github.com/dalemusser/accredithub/internal/app/store/proposals"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/conducts?organizationProfileId=                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeConductsByProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := inputval.ObjectID("organizationProfileId", r.URL.Query().Get("organizationProfileId"))
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

	list, err := proposalstore.New(h.DB).ConductsByProfile(ctx, profileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, list)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/conducts/{id}                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeConduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.conductFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, c)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /api/conducts/{id}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdateConduct edits the conduct's own copy of the plan. The source
// proposal is never touched.
func (h *Handler) HandleUpdateConduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.conductFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	f, err := h.decodePatch(ctx, r, c.OrganizationProfileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err = proposalstore.New(h.DB).UpdateConduct(ctx, c.ID, f, authz.IsStudentLeader(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Message(w, "Conduct updated", c)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/conducts/{id}/review                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReviewConduct(w http.ResponseWriter, r *http.Request) {
	d, err := review.Decode(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.conductFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	status := d.ConductStatus()
	c, err = proposalstore.New(h.DB).ReviewConduct(ctx, c.ID, status, d.RevisionNotes)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	d.Count("conduct")
	h.AuditLog.ReviewDecision(ctx, r, "conduct", c.ID, c.OrganizationProfileID, status.String(), d.RevisionNotes)
	h.notify(ctx, c.OrganizationProfileID, "Conduct: "+c.Plan.ActivityTitle, status.String(), d.RevisionNotes)
	respond.Message(w, "Review saved", c)
}
