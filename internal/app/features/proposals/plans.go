// internal/app/features/proposals/plans.go
package proposals

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	accreditationstore "github.com/dalemusser/accredithub/internal/app/store/accreditations"
	proposalstore "github.com/dalemusser/accredithub/internal/app/store/proposals"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planView struct {
	models.ProposedActionPlan
	Proposals []models.Proposal `json:"proposals"`
}

func (h *Handler) planView(ctx context.Context, plan models.ProposedActionPlan) (planView, error) {
	list, err := proposalstore.New(h.DB).ProposalsOf(ctx, plan.ID)
	if err != nil {
		return planView{}, err
	}
	return planView{ProposedActionPlan: plan, Proposals: list}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/action-plans                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreatePlan returns the active plan for the profile's current
// accreditation, opening both on first use.
func (h *Handler) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizationProfileID string `json:"organizationProfileId"`
	}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	profileID, err := inputval.ObjectID("organizationProfileId", req.OrganizationProfileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	profile, err := h.loadProfile(ctx, r, profileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	acc, _, err := accreditationstore.New(h.DB).GetOrCreateActive(ctx, profile.ID, profile.OrganizationID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	plan, created, err := proposalstore.New(h.DB).GetOrCreatePlan(ctx, profile.ID, acc.ID, profile.OrganizationID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	v, err := h.planView(ctx, plan)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if created {
		respond.Created(w, "Action plan created", v)
		return
	}
	respond.OK(w, v)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/action-plans/{planID}                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServePlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	plan, err := h.planFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	v, err := h.planView(ctx, plan)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, v)
}

type submitRequest struct {
	ActivityTitle                 string       `json:"activityTitle" validate:"required,max=300"`
	AlignedSDG                    []string     `json:"alignedSDG" validate:"dive,max=100"`
	AlignedOrganizationObjectives string       `json:"alignedOrgObjectives" validate:"max=2000"`
	BudgetaryRequirements         models.Money `json:"budgetaryRequirements" validate:"gte=0"`
	Venue                         string       `json:"venue" validate:"max=300"`
	ProposedDate                  *time.Time   `json:"proposedDate"`
	SourceOfFund                  string       `json:"sourceOfFunds" validate:"max=300"`
	DocumentID                    string       `json:"documentId"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/action-plans/{planID}/proposals                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.ActivityTitle = strings.TrimSpace(req.ActivityTitle)
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	docID, err := inputval.OptionalObjectID("documentId", req.DocumentID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	plan, err := h.planFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var docs []primitive.ObjectID
	if docID != nil {
		docs = append(docs, *docID)
	}
	if err := h.requireDocuments(ctx, "documentId", plan.OrganizationProfileID, docs); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	p, err := proposalstore.New(h.DB).Submit(ctx, plan.ID, models.Proposal{
		ActivityTitle:                 req.ActivityTitle,
		AlignedSDG:                    req.AlignedSDG,
		AlignedOrganizationObjectives: req.AlignedOrganizationObjectives,
		BudgetaryRequirements:         req.BudgetaryRequirements,
		Venue:                         req.Venue,
		ProposedDate:                  req.ProposedDate,
		SourceOfFund:                  req.SourceOfFund,
		DocumentIDs:                   docs,
	})
	if errors.Is(err, proposalstore.ErrPlanNotFound) {
		respond.Error(w, h.Log, respond.NotFound("action plan not found"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, "Proposal submitted", p)
}
