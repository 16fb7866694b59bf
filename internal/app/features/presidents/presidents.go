// internal/app/features/presidents/presidents.go
package presidents

import (
	"context"
	"errors"
	"net/http"
	"strings"

	accreditationstore "github.com/dalemusser/accredithub/internal/app/store/accreditations"
	presidentstore "github.com/dalemusser/accredithub/internal/app/store/presidents"
	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/app/system/txn"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// presidentFields are the editable fields shared by create and update.
type presidentFields struct {
	Name            string                 `json:"name" validate:"required,max=200"`
	Department      string                 `json:"department" validate:"max=200"`
	Course          string                 `json:"course" validate:"max=200"`
	Year            string                 `json:"year" validate:"max=20"`
	Age             int                    `json:"age" validate:"gte=0,lte=120"`
	Sex             string                 `json:"sex" validate:"max=20"`
	Religion        string                 `json:"religion" validate:"max=100"`
	Nationality     string                 `json:"nationality" validate:"max=100"`
	ContactNumber   string                 `json:"contactNo" validate:"max=50"`
	FacebookAccount string                 `json:"facebookAccount" validate:"max=300"`
	ProfilePicture  string                 `json:"profilePicture" validate:"max=500"`
	ClassSchedule   []models.ClassSchedule `json:"classSchedule" validate:"dive"`
	TalentSkills    []models.TalentSkill   `json:"talentSkills" validate:"dive"`
}

func (f presidentFields) apply(p *models.PresidentProfile) {
	p.Name = strings.TrimSpace(f.Name)
	p.Department = f.Department
	p.Course = f.Course
	p.Year = f.Year
	p.Age = f.Age
	p.Sex = f.Sex
	p.Religion = f.Religion
	p.Nationality = f.Nationality
	p.ContactNumber = f.ContactNumber
	p.FacebookAccount = f.FacebookAccount
	p.ProfilePicture = f.ProfilePicture
	p.ClassSchedule = f.ClassSchedule
	p.TalentSkills = f.TalentSkills
}

type createRequest struct {
	OrganizationProfileID string `json:"organizationProfileId"`
	presidentFields
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/presidents                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate files a new president profile and makes it the current one
// for both the organization profile and its active accreditation.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	profileID, err := inputval.ObjectID("organizationProfileId", req.OrganizationProfileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	profile, err := h.loadProfile(ctx, r, profileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	accreditations := accreditationstore.New(h.DB)
	if _, _, err := accreditations.GetOrCreateActive(ctx, profile.ID, profile.OrganizationID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	p := models.PresidentProfile{
		OrganizationProfileID: profile.ID,
		OrganizationID:        profile.OrganizationID,
	}
	req.apply(&p)

	var created models.PresidentProfile
	err = txn.Run(ctx, h.DB.Client(), h.Log, func(ctx context.Context) error {
		var err error
		created, err = presidentstore.New(h.DB).Create(ctx, p)
		if err != nil {
			return err
		}
		if err := profilestore.New(h.DB).SetPresident(ctx, profile.ID, created.ID); err != nil {
			return err
		}
		return accreditations.SetPresident(ctx, profile.ID, created.ID)
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	h.AuditLog.PresidentReplaced(ctx, r, created.ID, profile.ID, profile.OrgPresidentID)
	respond.Created(w, "President profile created", created)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/presidents/{profileID}/current                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	profileID, err := inputval.ObjectID("profileID", chi.URLParam(r, "profileID"))
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
	if profile.OrgPresidentID == nil {
		respond.Error(w, h.Log, respond.NotFound("no president profile on file"))
		return
	}
	p, err := presidentstore.New(h.DB).GetByID(ctx, *profile.OrgPresidentID)
	if errors.Is(err, presidentstore.ErrNotFound) {
		respond.Error(w, h.Log, respond.NotFound("no president profile on file"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/presidents/{profileID}/history                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	profileID, err := inputval.ObjectID("profileID", chi.URLParam(r, "profileID"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.loadProfile(ctx, r, profileID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	list, err := presidentstore.New(h.DB).History(ctx, profileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, list)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /api/presidents/{presidentID}                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdate replaces the editable fields. An edit by a student leader
// sends the profile back to Pending.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req presidentFields
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.presidentFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.apply(&p)
	p, err = presidentstore.New(h.DB).Update(ctx, p.ID, p, authz.IsStudentLeader(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Message(w, "President profile updated", p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/presidents/{presidentID}/review                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	d, err := review.Decode(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.presidentFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	status := d.ReviewStatus()
	p, err = presidentstore.New(h.DB).SetReview(ctx, p.ID, status, d.RevisionNotes)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	d.Count("president_profile")
	h.AuditLog.ReviewDecision(ctx, r, "president_profile", p.ID, p.OrganizationProfileID, status.String(), d.RevisionNotes)
	if op, err := profilestore.New(h.DB).GetByID(ctx, p.OrganizationProfileID); err == nil {
		h.Notifier.Notify(ctx, op, "President profile", status.String(), d.RevisionNotes)
	}
	respond.Message(w, "Review saved", p)
}
