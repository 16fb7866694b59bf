// Package review decodes reviewer decisions and turns them into the status
// types of each reviewable record. A decision is either an approval or a
// revision request; revisions are labelled with the reviewer's position.
package review

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/mailer"
	"github.com/dalemusser/accredithub/internal/app/system/metrics"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	OutcomeApproved = "approved"
	OutcomeRevision = "revision"
)

// Decision is the body of every review endpoint.
//
//	{"status": "Approved", "revisionNotes": ""}
//	{"status": "Revision", "revisionNotes": "Missing signatures"}
//
// Status also accepts the stored forms ("Approved For Conduct",
// "Conduct Approved", "Revision from ...").
type Decision struct {
	Status        string `json:"status" validate:"required"`
	RevisionNotes string `json:"revisionNotes" validate:"max=2000"`

	approved bool
	by       string
}

// Decode reads and validates a Decision. The revision label comes from the
// position of the signed-in reviewer, never from the body.
func Decode(r *http.Request) (Decision, error) {
	var d Decision
	if err := respond.DecodeJSON(r, &d); err != nil {
		return Decision{}, err
	}
	if err := inputval.Validate(d); err != nil {
		return Decision{}, err
	}

	switch s := strings.ToLower(strings.TrimSpace(d.Status)); {
	case s == "approved" || s == "approve" || s == "approved for conduct" || s == "conduct approved":
		d.approved = true
	case strings.HasPrefix(s, "revision"):
		d.approved = false
	default:
		return Decision{}, inputval.Field("status", "status must be Approved or Revision")
	}

	pos, _, _, _ := authz.UserCtx(r)
	d.by = authz.RevisionLabel(pos)
	d.RevisionNotes = htmlsanitize.PlainText(strings.TrimSpace(d.RevisionNotes))
	if d.approved {
		d.RevisionNotes = ""
	}
	return d, nil
}

func (d Decision) Approved() bool { return d.approved }

func (d Decision) Outcome() string {
	if d.approved {
		return OutcomeApproved
	}
	return OutcomeRevision
}

// ReviewStatus is the decision as a document/roster/president/profile status.
func (d Decision) ReviewStatus() models.ReviewStatus {
	if d.approved {
		return models.ReviewApproved()
	}
	return models.ReviewRevision(d.by)
}

// ProposalStatus maps approval to "Approved For Conduct".
func (d Decision) ProposalStatus() models.ProposalStatus {
	if d.approved {
		return models.ProposalApprovedForConduct()
	}
	return models.ProposalRevision(d.by)
}

// ConductStatus maps approval to "Conduct Approved".
func (d Decision) ConductStatus() models.ConductStatus {
	if d.approved {
		return models.ConductApproved()
	}
	return models.ConductRevision(d.by)
}

// Count records the decision in the review metrics.
func (d Decision) Count(entity string) {
	metrics.ReviewDecisions.WithLabelValues(entity, d.Outcome()).Inc()
}

// Notifier emails an organization when one of its sections is reviewed.
// Delivery failures are logged and never fail the review.
type Notifier struct {
	Mail     mailer.Sender
	SiteName string
	Log      *zap.Logger
}

// Notify sends the notice to the organization's address. A nil Notifier, a
// nil sender or an empty address is a no-op.
func (n *Notifier) Notify(ctx context.Context, p models.OrganizationProfile, section, status, notes string) {
	if n == nil || n.Mail == nil || strings.TrimSpace(p.OrgEmail) == "" {
		return
	}
	e := mailer.BuildReviewNoticeEmail(mailer.ReviewNoticeData{
		SiteName: n.SiteName,
		OrgName:  p.OrgName,
		Section:  section,
		Status:   status,
		Notes:    notes,
	})
	e.To = p.OrgEmail
	if err := n.Mail.Send(ctx, e); err != nil && n.Log != nil {
		n.Log.Warn("review notice not sent",
			zap.String("profile_id", p.ID.Hex()),
			zap.String("section", section),
			zap.Error(err))
	}
}
