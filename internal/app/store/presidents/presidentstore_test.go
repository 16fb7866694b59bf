package presidentstore_test

import (
	"errors"
	"testing"

	presidentstore "github.com/dalemusser/accredithub/internal/app/store/presidents"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := presidentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	profileID := primitive.NewObjectID()
	first, err := store.Create(ctx, models.PresidentProfile{OrganizationProfileID: profileID, Name: " Ana "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.Name != "Ana" || !first.OverallStatus.IsPending() {
		t.Errorf("unexpected president: %q / %s", first.Name, first.OverallStatus)
	}
	if first.ClassSchedule == nil || first.TalentSkills == nil {
		t.Error("expected empty lists, not nil")
	}

	second, err := store.Create(ctx, models.PresidentProfile{OrganizationProfileID: profileID, Name: "Ben"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.PresidentProfile{OrganizationProfileID: primitive.NewObjectID(), Name: "Other"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	history, err := store.History(ctx, profileID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 presidents, got %d", len(history))
	}
	if history[0].ID != second.ID {
		t.Errorf("expected newest first, got %q", history[0].Name)
	}
}

func TestStore_Update_ResetsReview(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := presidentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.Create(ctx, models.PresidentProfile{OrganizationProfileID: primitive.NewObjectID(), Name: "Ana"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.SetReview(ctx, p.ID, models.ReviewRevision("SDU"), "add schedule"); err != nil {
		t.Fatalf("SetReview failed: %v", err)
	}

	tests := []struct {
		name        string
		reset       bool
		wantPending bool
	}{
		{"reviewer edit keeps status", false, false},
		{"student edit resets status", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit := p
			edit.Course = "BSCS"
			edit.ClassSchedule = []models.ClassSchedule{{Subject: "Algorithms", Day: "Mon", Time: "9:00"}}
			got, err := store.Update(ctx, p.ID, edit, tt.reset)
			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			if got.OverallStatus.IsPending() != tt.wantPending {
				t.Errorf("status = %s, wantPending %v", got.OverallStatus, tt.wantPending)
			}
			if got.Course != "BSCS" || len(got.ClassSchedule) != 1 {
				t.Errorf("fields not updated: %+v", got)
			}
		})
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), p, true); !errors.Is(err, presidentstore.ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}
