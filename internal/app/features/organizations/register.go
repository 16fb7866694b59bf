// internal/app/features/organizations/register.go
package organizations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	organizationstore "github.com/dalemusser/accredithub/internal/app/store/organizations"
	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	userstore "github.com/dalemusser/accredithub/internal/app/store/users"
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/app/system/txn"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type initialProfileRequest struct {
	OrgName       string `json:"orgName" validate:"required,max=200"`
	OrgAcronym    string `json:"orgAcronym" validate:"required,max=30"`
	OrgClass      string `json:"orgClass" validate:"required,max=100"`
	OrgDepartment string `json:"orgDepartment" validate:"max=200"`
	OrgCourse     string `json:"orgCourse" validate:"max=200"`
	OrgEmail      string `json:"orgEmail" validate:"omitempty,email"`
	OrgLogo       string `json:"orgLogo" validate:"max=500"`
	OrgStatus     string `json:"orgStatus" validate:"max=100"`
	AdviserID     string `json:"adviserId"`
}

var (
	errDuplicateProfile = respond.Conflict("DUPLICATE_ORGANIZATION_PROFILE",
		"an active organization profile with this acronym already exists")
	errDuplicateName = respond.Conflict("DUPLICATE_ORGANIZATION_NAME",
		"an organization with this name is already registered")
)

// registration is what the pre-checks decided before any write.
type registration struct {
	orgID primitive.ObjectID // zero: create a new organization
	reuse *models.OrganizationProfile
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/organizations/initial-profile                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleInitialProfile registers an organization's profile for a new cycle.
//
// An acronym held by an active profile blocks registration unless that
// profile was marked reusable, in which case it is deactivated and the new
// profile is created under the same organization. The unique partial index
// on active acronyms settles concurrent attempts.
func (h *Handler) HandleInitialProfile(w http.ResponseWriter, r *http.Request) {
	var req initialProfileRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.OrgName = strings.TrimSpace(req.OrgName)
	req.OrgAcronym = strings.TrimSpace(req.OrgAcronym)
	req.OrgEmail = strings.TrimSpace(req.OrgEmail)
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	adviserID, err := inputval.OptionalObjectID("adviserId", req.AdviserID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if adviserID != nil {
		if err := h.checkAdviser(ctx, *adviserID); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
	}

	plan, err := h.plan(ctx, req.OrgName, req.OrgAcronym)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	pos, _, uid, _ := authz.UserCtx(r)
	linkUser := pos == authz.StudentLeader

	var created models.OrganizationProfile
	err = txn.Run(ctx, h.DB.Client(), h.Log, func(ctx context.Context) error {
		orgID := plan.orgID
		if orgID.IsZero() {
			org, err := organizationstore.New(h.DB).Create(ctx, models.Organization{Name: req.OrgName})
			if errors.Is(err, organizationstore.ErrDuplicateOrganization) {
				return errDuplicateName
			}
			if err != nil {
				return err
			}
			orgID = org.ID
		}

		profiles := profilestore.New(h.DB)
		if plan.reuse != nil {
			ok, err := profiles.Deactivate(ctx, plan.reuse.ID)
			if err != nil {
				return err
			}
			if !ok {
				// reuse was revoked or someone else took it first
				return errDuplicateProfile
			}
		}

		p, err := profiles.Create(ctx, models.OrganizationProfile{
			OrganizationID: orgID,
			OrgName:        req.OrgName,
			OrgAcronym:     req.OrgAcronym,
			OrgClass:       req.OrgClass,
			OrgDepartment:  req.OrgDepartment,
			OrgCourse:      req.OrgCourse,
			OrgEmail:       req.OrgEmail,
			OrgLogo:        req.OrgLogo,
			OrgStatus:      req.OrgStatus,
			AdviserID:      adviserID,
		})
		if errors.Is(err, profilestore.ErrDuplicateProfile) {
			return errDuplicateProfile
		}
		if err != nil {
			return err
		}

		if linkUser {
			if err := userstore.New(h.DB).SetOrganizationProfile(ctx, uid, p.ID); err != nil {
				return err
			}
		}
		created = p
		return nil
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if linkUser {
		h.refreshSession(w, r, created.ID)
	}
	h.AuditLog.ProfileRegistered(ctx, r, created.ID, created.OrganizationID, created.OrgAcronym, plan.reuse != nil)
	respond.Created(w, "Organization profile created", created)
}

// plan runs the duplicate checks. The writes in HandleInitialProfile re-check
// through unique indexes, so a race between plan and the writes still ends
// in a 409 and never in a second active profile.
func (h *Handler) plan(ctx context.Context, name, acronym string) (registration, error) {
	var out registration
	profiles := profilestore.New(h.DB)

	prev, err := profiles.GetActiveByAcronym(ctx, acronym)
	switch {
	case err == nil && !prev.IsAllowedForReuse:
		return out, errDuplicateProfile
	case err == nil:
		out.reuse = &prev
		out.orgID = prev.OrganizationID
	case !errors.Is(err, profilestore.ErrNotFound):
		return out, err
	}

	org, err := organizationstore.New(h.DB).GetByName(ctx, name)
	if errors.Is(err, organizationstore.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	if org.ID == out.orgID {
		return out, nil
	}
	if out.reuse != nil {
		// the acronym belongs to one organization and the name to another
		return out, errDuplicateName
	}

	active, err := profiles.GetActiveForOrganization(ctx, org.ID)
	switch {
	case err == nil && !active.IsAllowedForReuse:
		return out, errDuplicateName
	case err == nil:
		out.reuse = &active
	case !errors.Is(err, profilestore.ErrNotFound):
		return out, err
	}
	out.orgID = org.ID
	return out, nil
}

func (h *Handler) checkAdviser(ctx context.Context, id primitive.ObjectID) error {
	u, err := userstore.New(h.DB).GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		return inputval.Field("adviserId", "adviser not found")
	}
	if err != nil {
		return err
	}
	if u.Position != authz.Adviser {
		return inputval.Field("adviserId", "user is not an adviser")
	}
	return nil
}

// refreshSession points the signed-in student leader's session at the new
// profile. The profile is already linked in the database, so a failure here
// is only logged; the next sign-in picks it up.
func (h *Handler) refreshSession(w http.ResponseWriter, r *http.Request, profileID primitive.ObjectID) {
	if h.SessionMgr == nil {
		return
	}
	su, ok := auth.CurrentUser(r)
	if !ok {
		return
	}
	next := *su
	next.OrganizationProfileID = profileID.Hex()
	if err := h.SessionMgr.Login(w, r, next); err != nil {
		h.Log.Warn("session refresh after registration failed", zap.Error(err))
	}
}
