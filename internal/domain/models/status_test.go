package models_test

import (
	"encoding/json"
	"testing"

	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestReviewStatus_String(t *testing.T) {
	tests := []struct {
		name   string
		status models.ReviewStatus
		want   string
	}{
		{"zero value", models.ReviewStatus{}, "Pending"},
		{"pending", models.ReviewPending(), "Pending"},
		{"approved", models.ReviewApproved(), "Approved"},
		{"revision", models.ReviewRevision("SDU Coordinator"), "Revision from SDU Coordinator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseReviewStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    models.ReviewStatus
		wantErr bool
	}{
		{"", models.ReviewPending(), false},
		{"Pending", models.ReviewPending(), false},
		{"Approved", models.ReviewApproved(), false},
		{"Revision from Dean", models.ReviewRevision("Dean"), false},
		{"Revision from ", models.ReviewStatus{}, true},
		{"Approved For Conduct", models.ReviewStatus{}, true},
		{"Conduct Approved", models.ReviewStatus{}, true},
		{"approved-ish", models.ReviewStatus{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := models.ParseReviewStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReviewStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseReviewStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProposalStatus_ClosedSet(t *testing.T) {
	valid := []string{
		"Pending",
		"Approved For Conduct",
		"Revision from Adviser",
		"Revision Update from Student Leader",
	}
	for _, s := range valid {
		if _, err := models.ParseProposalStatus(s); err != nil {
			t.Errorf("ParseProposalStatus(%q) unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"Approved", "Conduct Approved", "Done"} {
		if _, err := models.ParseProposalStatus(s); err == nil {
			t.Errorf("ParseProposalStatus(%q) expected error", s)
		}
	}
}

func TestConductStatus_ClosedSet(t *testing.T) {
	valid := []string{
		"Pending",
		"Revision Update from Student Leader",
		"Revision from SDU",
		"Conduct Approved",
	}
	for _, s := range valid {
		if _, err := models.ParseConductStatus(s); err != nil {
			t.Errorf("ParseConductStatus(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := models.ParseConductStatus("Approved For Conduct"); err == nil {
		t.Error("expected Approved For Conduct to be rejected for conducts")
	}
}

func TestIsPending(t *testing.T) {
	if !models.ProposalPending().IsPending() || models.ProposalStudentUpdate().IsPending() {
		t.Error("ProposalStatus.IsPending")
	}
	if !models.ConductPending().IsPending() || models.ConductApproved().IsPending() {
		t.Error("ConductStatus.IsPending")
	}
	var zero models.ProposalStatus
	if !zero.IsPending() {
		t.Error("zero ProposalStatus should be Pending")
	}
}

func TestRevisionBy(t *testing.T) {
	by, ok := models.ReviewRevision("Adviser").RevisionBy()
	if !ok || by != "Adviser" {
		t.Errorf("RevisionBy() = (%q, %v), want (Adviser, true)", by, ok)
	}
	if _, ok := models.ReviewApproved().RevisionBy(); ok {
		t.Error("approved status should not report a reviser")
	}
}

func TestStatus_BSONRoundTrip(t *testing.T) {
	type doc struct {
		Review   models.ReviewStatus   `bson:"review"`
		Proposal models.ProposalStatus `bson:"proposal"`
		Conduct  models.ConductStatus  `bson:"conduct"`
	}
	in := doc{
		Review:   models.ReviewRevision("Dean"),
		Proposal: models.ProposalApprovedForConduct(),
		Conduct:  models.ConductStudentUpdate(),
	}
	raw, err := bson.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Stored vocabulary stays plain strings.
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal to map: %v", err)
	}
	if m["review"] != "Revision from Dean" {
		t.Errorf("stored review = %v", m["review"])
	}
	if m["proposal"] != "Approved For Conduct" {
		t.Errorf("stored proposal = %v", m["proposal"])
	}

	var out doc
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestStatus_BSONRejectsUnknown(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"review": "Archived"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out struct {
		Review models.ReviewStatus `bson:"review"`
	}
	if err := bson.Unmarshal(raw, &out); err == nil {
		t.Error("expected decode error for unknown status")
	}
}

func TestStatus_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		S models.ConductStatus `json:"s"`
	}{models.ConductApproved()})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"s":"Conduct Approved"}` {
		t.Errorf("json = %s", b)
	}

	var in struct {
		S models.ReviewStatus `json:"s"`
	}
	if err := json.Unmarshal([]byte(`{"s":"Revision from SDU"}`), &in); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if in.S != models.ReviewRevision("SDU") {
		t.Errorf("decoded %q", in.S)
	}
	if err := json.Unmarshal([]byte(`{"s":"Conduct Approved"}`), &in); err == nil {
		t.Error("expected Conduct Approved to be rejected as a review status")
	}
}
