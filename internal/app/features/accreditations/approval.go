// internal/app/features/accreditations/approval.go
package accreditations

import "github.com/dalemusser/accredithub/internal/domain/models"

// Section names reported by ComputeApprovalStatus.
const (
	SectionRoster              = "roster"
	SectionPresident           = "presidentProfile"
	SectionOrganizationProfile = "organizationProfile"
	SectionJointStatement      = "jointStatement"
	SectionPledgeAgainstHazing = "pledgeAgainstHazing"
)

const (
	statusMissing = "Missing"
	statusLinked  = "Linked"

	messageComplete   = "Accreditation complete"
	messageIncomplete = "Accreditation incomplete"
)

// ApprovalInput is everything the approval rule looks at. A nil status means
// the record does not exist yet.
type ApprovalInput struct {
	Roster              *models.ReviewStatus
	President           *models.ReviewStatus
	OrganizationProfile *models.ReviewStatus
	JointStatement      bool
	PledgeAgainstHazing bool
}

// ApprovalStatus is the result of ComputeApprovalStatus.
type ApprovalStatus struct {
	Complete bool              `json:"complete"`
	Message  string            `json:"message"`
	Sections map[string]string `json:"sections,omitempty"`
}

// ComputeApprovalStatus reports an accreditation complete iff the roster, the
// president profile and the organization profile are Approved and the joint
// statement and pledge against hazing are linked. The constitution and
// by-laws are not part of the rule.
func ComputeApprovalStatus(in ApprovalInput) ApprovalStatus {
	approved := func(s *models.ReviewStatus) bool { return s != nil && s.IsApproved() }

	if approved(in.Roster) && approved(in.President) && approved(in.OrganizationProfile) &&
		in.JointStatement && in.PledgeAgainstHazing {
		return ApprovalStatus{Complete: true, Message: messageComplete}
	}

	return ApprovalStatus{
		Complete: false,
		Message:  messageIncomplete,
		Sections: map[string]string{
			SectionRoster:              statusText(in.Roster),
			SectionPresident:           statusText(in.President),
			SectionOrganizationProfile: statusText(in.OrganizationProfile),
			SectionJointStatement:      linkText(in.JointStatement),
			SectionPledgeAgainstHazing: linkText(in.PledgeAgainstHazing),
		},
	}
}

func statusText(s *models.ReviewStatus) string {
	if s == nil {
		return statusMissing
	}
	return s.String()
}

func linkText(linked bool) string {
	if linked {
		return statusLinked
	}
	return statusMissing
}
