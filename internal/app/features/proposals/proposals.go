// internal/app/features/proposals/proposals.go
package proposals

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	proposalstore "github.com/dalemusser/accredithub/internal/app/store/proposals"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// patchRequest is the partial update accepted for a proposal and for the
// plan copy of a conduct record.
type patchRequest struct {
	ActivityTitle                 *string       `json:"activityTitle" validate:"omitempty,max=300"`
	AlignedSDG                    *[]string     `json:"alignedSDG"`
	AlignedOrganizationObjectives *string       `json:"alignedOrgObjectives" validate:"omitempty,max=2000"`
	BudgetaryRequirements         *models.Money `json:"budgetaryRequirements" validate:"omitempty,gte=0"`
	Venue                         *string       `json:"venue" validate:"omitempty,max=300"`
	ProposedDate                  *time.Time    `json:"proposedDate"`
	SourceOfFund                  *string       `json:"sourceOfFunds" validate:"omitempty,max=300"`
	DocumentID                    string        `json:"documentId"`
}

// decodePatch reads and checks a patchRequest. The document, when given,
// must belong to profileID.
func (h *Handler) decodePatch(ctx context.Context, r *http.Request, profileID primitive.ObjectID) (proposalstore.PlanFields, error) {
	var req patchRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		return proposalstore.PlanFields{}, err
	}
	if req.ActivityTitle != nil && strings.TrimSpace(*req.ActivityTitle) == "" {
		return proposalstore.PlanFields{}, inputval.Required("activityTitle")
	}
	if err := inputval.Validate(req); err != nil {
		return proposalstore.PlanFields{}, err
	}
	docID, err := inputval.OptionalObjectID("documentId", req.DocumentID)
	if err != nil {
		return proposalstore.PlanFields{}, err
	}
	if docID != nil {
		if err := h.requireDocuments(ctx, "documentId", profileID, []primitive.ObjectID{*docID}); err != nil {
			return proposalstore.PlanFields{}, err
		}
	}
	return proposalstore.PlanFields{
		ActivityTitle:                 req.ActivityTitle,
		AlignedSDG:                    req.AlignedSDG,
		AlignedOrganizationObjectives: req.AlignedOrganizationObjectives,
		BudgetaryRequirements:         req.BudgetaryRequirements,
		Venue:                         req.Venue,
		ProposedDate:                  req.ProposedDate,
		SourceOfFund:                  req.SourceOfFund,
		DocumentID:                    docID,
	}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/proposals/{id}                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProposal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.proposalFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /api/proposals/{id}                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdateProposal applies a partial edit. A student leader's edit
// marks the proposal as revised by the student; a reviewer's keeps it.
func (h *Handler) HandleUpdateProposal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.proposalFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	f, err := h.decodePatch(ctx, r, p.OrganizationProfileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p, err = proposalstore.New(h.DB).UpdateProposal(ctx, p.ID, f, authz.IsStudentLeader(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Message(w, "Proposal updated", p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/proposals/{id}/review                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReviewProposal(w http.ResponseWriter, r *http.Request) {
	d, err := review.Decode(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.proposalFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	status := d.ProposalStatus()
	p, err = proposalstore.New(h.DB).ReviewProposal(ctx, p.ID, status, d.RevisionNotes)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	d.Count("proposal")
	h.AuditLog.ReviewDecision(ctx, r, "proposal", p.ID, p.OrganizationProfileID, status.String(), d.RevisionNotes)
	h.notify(ctx, p.OrganizationProfileID, "Proposal: "+p.ActivityTitle, status.String(), d.RevisionNotes)
	respond.Message(w, "Review saved", p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/proposals/{id}/conduct                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreateConduct opens the conduct record of an approved proposal.
// The body is optional.
func (h *Handler) HandleCreateConduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentIDs []string `json:"documentIds"`
	}
	if r.ContentLength != 0 {
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
	}
	docs := make([]primitive.ObjectID, 0, len(req.DocumentIDs))
	for _, hex := range req.DocumentIDs {
		id, err := inputval.ObjectID("documentIds", hex)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		docs = append(docs, id)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.proposalFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.requireDocuments(ctx, "documentIds", p.OrganizationProfileID, docs); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	c, err := proposalstore.New(h.DB).CreateConduct(ctx, p.ID, docs)
	switch {
	case errors.Is(err, proposalstore.ErrNotApprovedForConduct):
		respond.Error(w, h.Log, respond.Conflict("PROPOSAL_NOT_APPROVED_FOR_CONDUCT", "the proposal has not been approved for conduct"))
		return
	case errors.Is(err, proposalstore.ErrConductExists):
		respond.Error(w, h.Log, respond.Conflict("DUPLICATE_CONDUCT", "the proposal already has a conduct record"))
		return
	case err != nil:
		respond.Error(w, h.Log, err)
		return
	}

	h.AuditLog.ConductCreated(ctx, r, c.ID, p.ID, p.OrganizationProfileID)
	respond.Created(w, "Conduct created", c)
}
