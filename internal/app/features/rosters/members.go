// internal/app/features/rosters/members.go
package rosters

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	rosterstore "github.com/dalemusser/accredithub/internal/app/store/rosters"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
)

type memberRequest struct {
	OrganizationProfileID string     `json:"organizationProfileId"`
	RosterID              string     `json:"rosterId"`
	Name                  string     `json:"name" validate:"required,max=200"`
	Email                 string     `json:"email" validate:"omitempty,email"`
	Position              string     `json:"position" validate:"max=100"`
	Status                string     `json:"status" validate:"max=100"`
	ProfilePicture        string     `json:"profilePicture" validate:"max=500"`
	ContactNumber         string     `json:"contactNumber" validate:"max=50"`
	Address               string     `json:"address" validate:"max=500"`
	BirthDate             *time.Time `json:"birthDate"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/rosters/members                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAddMember adds a member to the profile's roster. The roster is
// created on the first add.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	profileID, err := inputval.ObjectID("organizationProfileId", req.OrganizationProfileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	rosterID, err := inputval.OptionalObjectID("rosterId", req.RosterID)
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

	store := rosterstore.New(h.DB)
	var ros models.Roster
	if rosterID != nil {
		ros, err = store.GetByID(ctx, *rosterID)
		if errors.Is(err, rosterstore.ErrNotFound) {
			respond.Error(w, h.Log, respond.NotFound("roster not found"))
			return
		}
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if ros.OrganizationProfileID != profileID {
			respond.Error(w, h.Log, inputval.Field("rosterId", "roster belongs to another organization profile"))
			return
		}
	} else {
		ros, _, err = store.GetOrCreate(ctx, profileID)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
	}
	h.linkAccreditation(ctx, profileID, ros.ID)

	m, err := store.AddMember(ctx, ros.ID, models.RosterMember{
		Name:           req.Name,
		Email:          req.Email,
		Position:       req.Position,
		Status:         req.Status,
		ProfilePicture: req.ProfilePicture,
		ContactNumber:  req.ContactNumber,
		Address:        req.Address,
		BirthDate:      req.BirthDate,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, "Roster member added", m)
}

type memberPatchRequest struct {
	Name           *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Email          *string    `json:"email" validate:"omitempty,email"`
	Position       *string    `json:"position" validate:"omitempty,max=100"`
	Status         *string    `json:"status" validate:"omitempty,max=100"`
	ProfilePicture *string    `json:"profilePicture" validate:"omitempty,max=500"`
	ContactNumber  *string    `json:"contactNumber" validate:"omitempty,max=50"`
	Address        *string    `json:"address" validate:"omitempty,max=500"`
	BirthDate      *time.Time `json:"birthDate"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /api/rosters/members/{memberID}                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberPatchRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		respond.Error(w, h.Log, inputval.Required("name"))
		return
	}
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, _, err := h.memberFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	m, err = rosterstore.New(h.DB).UpdateMember(ctx, m.ID, rosterstore.MemberPatch{
		Name:           req.Name,
		Email:          req.Email,
		Position:       req.Position,
		Status:         req.Status,
		ProfilePicture: req.ProfilePicture,
		ContactNumber:  req.ContactNumber,
		Address:        req.Address,
		BirthDate:      req.BirthDate,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Message(w, "Roster member updated", m)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /api/rosters/members/{memberID}                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, _, err := h.memberFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	m, err = rosterstore.New(h.DB).RemoveMember(ctx, m.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Message(w, "Roster member removed", m)
}
