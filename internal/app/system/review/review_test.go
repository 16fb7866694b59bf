package review_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/mailer"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.uber.org/zap"
)

func decode(t *testing.T, user testutil.TestUser, body any) (review.Decision, error) {
	t.Helper()
	req := testutil.WithUser(testutil.NewJSONRequest("PUT", "/review", body), user)
	return review.Decode(req)
}

func TestDecode_Statuses(t *testing.T) {
	tests := []struct {
		name         string
		status       string
		user         testutil.TestUser
		wantReview   string
		wantProposal string
		wantConduct  string
	}{
		{"approved", "Approved", testutil.SDUUser(), "Approved", "Approved For Conduct", "Conduct Approved"},
		{"approved lowercase", "approve", testutil.AdviserUser(), "Approved", "Approved For Conduct", "Conduct Approved"},
		{"stored proposal form", "Approved For Conduct", testutil.AdminUser(), "Approved", "Approved For Conduct", "Conduct Approved"},
		{"revision by sdu", "Revision", testutil.SDUUser(), "Revision from SDU", "Revision from SDU", "Revision from SDU"},
		{"revision by adviser", "revision", testutil.AdviserUser(), "Revision from Adviser", "Revision from Adviser", "Revision from Adviser"},
		{"revision label ignored", "Revision from Dean", testutil.AdminUser(), "Revision from Admin", "Revision from Admin", "Revision from Admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decode(t, tt.user, map[string]string{"status": tt.status, "revisionNotes": "fix page 2"})
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got := d.ReviewStatus().String(); got != tt.wantReview {
				t.Errorf("ReviewStatus = %q, want %q", got, tt.wantReview)
			}
			if got := d.ProposalStatus().String(); got != tt.wantProposal {
				t.Errorf("ProposalStatus = %q, want %q", got, tt.wantProposal)
			}
			if got := d.ConductStatus().String(); got != tt.wantConduct {
				t.Errorf("ConductStatus = %q, want %q", got, tt.wantConduct)
			}
			if d.Approved() && d.RevisionNotes != "" {
				t.Error("approval should clear revision notes")
			}
			if !d.Approved() && d.RevisionNotes != "fix page 2" {
				t.Errorf("notes = %q", d.RevisionNotes)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"missing status", map[string]string{"revisionNotes": "x"}},
		{"unknown status", map[string]string{"status": "Rejected"}},
		{"bad json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(t, testutil.SDUUser(), tt.body)
			if !inputval.IsValidation(err) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestDecode_SanitizesNotes(t *testing.T) {
	d, err := decode(t, testutil.SDUUser(), map[string]string{
		"status":        "Revision",
		"revisionNotes": `<script>alert(1)</script>Add the <b>adviser</b> signature`,
	})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.RevisionNotes != "Add the adviser signature" {
		t.Errorf("notes = %q", d.RevisionNotes)
	}
}

type recordingSender struct {
	sent []mailer.Email
	err  error
}

func (s *recordingSender) Send(_ context.Context, e mailer.Email) error {
	s.sent = append(s.sent, e)
	return s.err
}

func TestNotifier_Notify(t *testing.T) {
	sender := &recordingSender{}
	n := &review.Notifier{Mail: sender, SiteName: "AccreditHub", Log: zap.NewNop()}
	ctx := context.Background()

	n.Notify(ctx, models.OrganizationProfile{OrgName: "Computer Society"}, "Roster", "Approved", "")
	if len(sender.sent) != 0 {
		t.Fatal("no address should send nothing")
	}

	p := models.OrganizationProfile{OrgName: "Computer Society", OrgEmail: "cs@example.edu"}
	n.Notify(ctx, p, "Roster", "Revision from SDU", "Add members")
	if len(sender.sent) != 1 || sender.sent[0].To != "cs@example.edu" {
		t.Fatalf("sent = %+v", sender.sent)
	}

	// failures are swallowed
	sender.err = errors.New("smtp down")
	n.Notify(ctx, p, "Roster", "Approved", "")

	var nilNotifier *review.Notifier
	nilNotifier.Notify(ctx, p, "Roster", "Approved", "")
}
