// internal/app/features/accreditations/view.go
package accreditations

import (
	"context"
	"errors"
	"net/http"
	"time"

	accreditationstore "github.com/dalemusser/accredithub/internal/app/store/accreditations"
	documentstore "github.com/dalemusser/accredithub/internal/app/store/documents"
	financialreportstore "github.com/dalemusser/accredithub/internal/app/store/financialreports"
	presidentstore "github.com/dalemusser/accredithub/internal/app/store/presidents"
	rosterstore "github.com/dalemusser/accredithub/internal/app/store/rosters"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// rosterView is a roster with its members resolved.
type rosterView struct {
	models.Roster
	Members []models.RosterMember `json:"members"`
}

// accreditationView is an accreditation with every reference resolved.
// Missing sub-records are null.
type accreditationView struct {
	ID            primitive.ObjectID  `json:"id"`
	IsActive      bool                `json:"isActive"`
	OverallStatus models.ReviewStatus `json:"overallStatus"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`

	OrganizationProfile   models.OrganizationProfile `json:"organizationProfile"`
	Roster                *rosterView                `json:"rosterMembers"`
	PresidentProfile      *models.PresidentProfile   `json:"PresidentProfile"`
	FinancialReport       *models.FinancialReport    `json:"FinancialReport"`
	JointStatement        *models.Document           `json:"JointStatement"`
	PledgeAgainstHazing   *models.Document           `json:"PledgeAgainstHazing"`
	ConstitutionAndByLaws *models.Document           `json:"ConstitutionAndByLaws"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/accreditations/{profileID}                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeAccreditation returns the active accreditation of the profile,
// creating it on first access, with its sub-records loaded.
func (h *Handler) ServeAccreditation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.profileFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	v, err := h.populate(ctx, p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, v)
}

func (h *Handler) populate(ctx context.Context, p models.OrganizationProfile) (accreditationView, error) {
	accs := accreditationstore.New(h.DB)
	a, _, err := accs.GetOrCreateActive(ctx, p.ID, p.OrganizationID)
	if err != nil {
		return accreditationView{}, err
	}

	v := accreditationView{
		ID:                  a.ID,
		IsActive:            a.IsActive,
		OverallStatus:       a.OverallStatus,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
		OrganizationProfile: p,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rv, err := h.loadRoster(gctx, accs, a, p.ID)
		v.Roster = rv
		return err
	})

	g.Go(func() error {
		id := a.PresidentID
		if id == nil {
			id = p.OrgPresidentID
		}
		if id == nil {
			return nil
		}
		pres, err := presidentstore.New(h.DB).GetByID(gctx, *id)
		if errors.Is(err, presidentstore.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		v.PresidentProfile = &pres
		return nil
	})

	g.Go(func() error {
		fr, err := h.loadFinancialReport(gctx, accs, a, p.ID)
		v.FinancialReport = fr
		return err
	})

	g.Go(func() error {
		docs := documentstore.New(h.DB)
		for _, link := range []struct {
			id  *primitive.ObjectID
			out **models.Document
		}{
			{a.JointStatementID, &v.JointStatement},
			{a.PledgeAgainstHazingID, &v.PledgeAgainstHazing},
			{a.ConstitutionAndByLawsID, &v.ConstitutionAndByLaws},
		} {
			if link.id == nil {
				continue
			}
			d, err := docs.GetByID(gctx, *link.id)
			if errors.Is(err, documentstore.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			*link.out = &d
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return accreditationView{}, err
	}
	return v, nil
}

// loadRoster follows the accreditation link, falling back to the profile's
// roster and backfilling the link when one is found that way.
func (h *Handler) loadRoster(ctx context.Context, accs *accreditationstore.Store, a models.Accreditation, profileID primitive.ObjectID) (*rosterView, error) {
	rosters := rosterstore.New(h.DB)

	var (
		ros models.Roster
		err error
	)
	if a.RosterID != nil {
		ros, err = rosters.GetByID(ctx, *a.RosterID)
	} else {
		ros, err = rosters.GetByProfile(ctx, profileID)
		if err == nil {
			h.backfill(ctx, accs, profileID, accreditationstore.LinkRoster, ros.ID)
		}
	}
	if errors.Is(err, rosterstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	members, err := rosters.Members(ctx, ros.ID)
	if err != nil {
		return nil, err
	}
	return &rosterView{Roster: ros, Members: members}, nil
}

func (h *Handler) loadFinancialReport(ctx context.Context, accs *accreditationstore.Store, a models.Accreditation, profileID primitive.ObjectID) (*models.FinancialReport, error) {
	reports := financialreportstore.New(h.DB, h.Log)

	var (
		fr  models.FinancialReport
		err error
	)
	if a.FinancialReportID != nil {
		fr, err = reports.GetByID(ctx, *a.FinancialReportID)
	} else {
		fr, err = reports.GetByProfile(ctx, profileID)
		if err == nil {
			h.backfill(ctx, accs, profileID, accreditationstore.LinkFinancialReport, fr.ID)
		}
	}
	if errors.Is(err, financialreportstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

// backfill links a sub-record found by profile. The read already succeeded,
// so a failed link is logged and retried on the next read.
func (h *Handler) backfill(ctx context.Context, accs *accreditationstore.Store, profileID primitive.ObjectID, field string, id primitive.ObjectID) {
	if _, err := accs.LinkIfUnset(ctx, profileID, field, id); err != nil {
		h.Log.Warn("accreditation backfill failed",
			zap.String("profile_id", profileID.Hex()),
			zap.String("field", field),
			zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/accreditations/{profileID}/status                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeApprovalStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.profileFromURL(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	v, err := h.populate(ctx, p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, ComputeApprovalStatus(approvalInputOf(v)))
}

func approvalInputOf(v accreditationView) ApprovalInput {
	profileStatus := v.OrganizationProfile.OverallStatus
	in := ApprovalInput{
		OrganizationProfile: &profileStatus,
		JointStatement:      v.JointStatement != nil,
		PledgeAgainstHazing: v.PledgeAgainstHazing != nil,
	}
	if v.Roster != nil {
		s := v.Roster.OverallStatus
		in.Roster = &s
	}
	if v.PresidentProfile != nil {
		s := v.PresidentProfile.OverallStatus
		in.President = &s
	}
	return in
}
