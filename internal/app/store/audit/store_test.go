package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/accredithub/internal/app/store/audit"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
}

func TestStore_Log_AutoSetsTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	before := time.Now().Add(-time.Second)
	if err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    &userID,
		Success:   true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	after := time.Now().Add(time.Second)

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Timestamp.Before(before) || events[0].Timestamp.After(after) {
		t.Errorf("expected timestamp to be set to current time, got %v", events[0].Timestamp)
	}
}

func TestStore_GetByTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	docID := primitive.NewObjectID()
	other := primitive.NewObjectID()

	for _, status := range []string{"Revision from SDU", "Approved"} {
		if err := store.Log(ctx, audit.Event{
			Category:   audit.CategoryReview,
			EventType:  audit.EventReviewDecision,
			TargetType: "document",
			TargetID:   &docID,
			Success:    true,
			Details:    map[string]string{"status": status},
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	if err := store.Log(ctx, audit.Event{
		Category:   audit.CategoryReview,
		EventType:  audit.EventReviewDecision,
		TargetType: "roster",
		TargetID:   &other,
		Success:    true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByTarget(ctx, docID, 10)
	if err != nil {
		t.Fatalf("GetByTarget failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, e := range events {
		if e.TargetType != "document" {
			t.Errorf("TargetType = %q, want document", e.TargetType)
		}
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	profile1 := primitive.NewObjectID()
	profile2 := primitive.NewObjectID()

	seed := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, OrganizationProfileID: &profile1, Success: true},
		{Category: audit.CategoryReview, EventType: audit.EventReviewDecision, OrganizationProfileID: &profile1, Success: true},
		{Category: audit.CategoryReview, EventType: audit.EventRosterCompleted, OrganizationProfileID: &profile2, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventProfileRegistered, OrganizationProfileID: &profile2, Success: true},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 4},
		{"by category", audit.QueryFilter{Category: audit.CategoryReview}, 2},
		{"by event type", audit.QueryFilter{EventType: audit.EventProfileRegistered}, 1},
		{"by profile", audit.QueryFilter{OrganizationProfileID: &profile1}, 2},
		{"profile and category", audit.QueryFilter{OrganizationProfileID: &profile2, Category: audit.CategoryReview}, 1},
		{"limit", audit.QueryFilter{Limit: 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryReview})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountByFilter = %d, want 2", n)
	}
}

func TestStore_Query_TimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)
	for _, ts := range []time.Time{old, now} {
		if err := store.Log(ctx, audit.Event{
			Timestamp: ts,
			Category:  audit.CategoryAuth,
			EventType: audit.EventLoginSuccess,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	since := now.Add(-time.Hour)
	events, err := store.Query(ctx, audit.QueryFilter{StartTime: &since})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 recent event, got %d", len(events))
	}
}

func TestStore_GetFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, et := range []string{
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
	} {
		if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: et, Success: false}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetFailedLogins(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("GetFailedLogins failed: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("expected 3 failed logins, got %d", len(events))
	}
}
