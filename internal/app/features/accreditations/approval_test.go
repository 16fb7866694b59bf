package accreditations_test

import (
	"fmt"
	"testing"

	"github.com/dalemusser/accredithub/internal/app/features/accreditations"
	"github.com/dalemusser/accredithub/internal/domain/models"
)

func status(approved bool) *models.ReviewStatus {
	s := models.ReviewRevision("SDU")
	if approved {
		s = models.ReviewApproved()
	}
	return &s
}

func TestComputeApprovalStatus_TruthTable(t *testing.T) {
	for mask := 0; mask < 1<<5; mask++ {
		bit := func(i int) bool { return mask&(1<<i) != 0 }
		in := accreditations.ApprovalInput{
			Roster:              status(bit(0)),
			President:           status(bit(1)),
			OrganizationProfile: status(bit(2)),
			JointStatement:      bit(3),
			PledgeAgainstHazing: bit(4),
		}
		want := mask == 1<<5-1

		t.Run(fmt.Sprintf("%05b", mask), func(t *testing.T) {
			got := accreditations.ComputeApprovalStatus(in)
			if got.Complete != want {
				t.Fatalf("Complete = %v, want %v", got.Complete, want)
			}
			if want {
				if got.Message != "Accreditation complete" || got.Sections != nil {
					t.Errorf("complete result = %+v", got)
				}
				return
			}
			if len(got.Sections) != 5 {
				t.Errorf("sections = %v, want all five", got.Sections)
			}
		})
	}
}

func TestComputeApprovalStatus_MissingRecords(t *testing.T) {
	approved := models.ReviewApproved()
	pending := models.ReviewPending()

	got := accreditations.ComputeApprovalStatus(accreditations.ApprovalInput{
		OrganizationProfile: &pending,
		President:           &approved,
		JointStatement:      true,
	})
	if got.Complete {
		t.Fatal("expected incomplete")
	}

	want := map[string]string{
		accreditations.SectionRoster:              "Missing",
		accreditations.SectionPresident:           "Approved",
		accreditations.SectionOrganizationProfile: "Pending",
		accreditations.SectionJointStatement:      "Linked",
		accreditations.SectionPledgeAgainstHazing: "Missing",
	}
	for k, v := range want {
		if got.Sections[k] != v {
			t.Errorf("Sections[%s] = %q, want %q", k, got.Sections[k], v)
		}
	}
}

func TestComputeApprovalStatus_RevisionLabel(t *testing.T) {
	rev := models.ReviewRevision("Dean")
	approved := models.ReviewApproved()
	got := accreditations.ComputeApprovalStatus(accreditations.ApprovalInput{
		Roster:              &rev,
		President:           &approved,
		OrganizationProfile: &approved,
		JointStatement:      true,
		PledgeAgainstHazing: true,
	})
	if got.Complete {
		t.Fatal("a roster under revision is not complete")
	}
	if got.Sections[accreditations.SectionRoster] != "Revision from Dean" {
		t.Errorf("roster section = %q", got.Sections[accreditations.SectionRoster])
	}
}
