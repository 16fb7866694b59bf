package auditlog_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/accredithub/internal/app/features/auditlog"
	"github.com/dalemusser/accredithub/internal/app/store/audit"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listResult struct {
	Items      []audit.Event `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int64         `json:"total"`
}

func seed(t *testing.T) (*auditlog.Handler, primitive.ObjectID, primitive.ObjectID) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	profileID := primitive.NewObjectID()
	docID := primitive.NewObjectID()
	store := audit.New(db)
	events := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true, Timestamp: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)},
		{Category: audit.CategoryReview, EventType: audit.EventReviewDecision, Success: true, TargetType: "document", TargetID: &docID, OrganizationProfileID: &profileID, Timestamp: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)},
		{Category: audit.CategoryReview, EventType: audit.EventDocumentUpdated, Success: true, TargetType: "document", TargetID: &docID, OrganizationProfileID: &profileID, Timestamp: time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)},
		{Category: audit.CategoryAdmin, EventType: audit.EventProfileRegistered, Success: true, OrganizationProfileID: &profileID, Timestamp: time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	return auditlog.NewHandler(db, zap.NewNop()), profileID, docID
}

func TestServeList_Filters(t *testing.T) {
	h, profileID, _ := seed(t)

	tests := []struct {
		name      string
		query     string
		wantTotal int64
	}{
		{"all", "", 4},
		{"by category", "?category=review", 2},
		{"by event type", "?eventType=login_success", 1},
		{"by profile", "?organizationProfileId=" + profileID.Hex(), 3},
		{"by date range", "?startDate=2026-03-02&endDate=2026-03-03", 2},
		{"end date is inclusive", "?endDate=2026-03-01", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/"+tt.query, testutil.SDUUser()))
			rec.AssertStatus(t, http.StatusOK)
			var got listResult
			rec.DecodeEnvelope(t, &got)
			if got.Total != tt.wantTotal || int64(len(got.Items)) != tt.wantTotal {
				t.Errorf("total = %d items = %d, want %d", got.Total, len(got.Items), tt.wantTotal)
			}
			if got.Page != 1 || got.TotalPages != 1 {
				t.Errorf("page = %d of %d", got.Page, got.TotalPages)
			}
		})
	}
}

func TestServeList_NewestFirst(t *testing.T) {
	h, _, _ := seed(t)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/", testutil.AdminUser()))
	var got listResult
	rec.DecodeEnvelope(t, &got)
	if len(got.Items) != 4 || got.Items[0].EventType != audit.EventProfileRegistered {
		t.Errorf("first item = %+v", got.Items)
	}
}

func TestServeList_BadInput(t *testing.T) {
	h, _, _ := seed(t)

	for _, q := range []string{"?category=nope", "?startDate=03/01/2026", "?endDate=x", "?organizationProfileId=bad"} {
		t.Run(q, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/"+q, testutil.AdminUser()))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestServeTargetHistory(t *testing.T) {
	h, _, docID := seed(t)

	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest("GET", "/", testutil.AdviserUser()), "id", docID.Hex())
	rec := testutil.NewRecorder()
	h.ServeTargetHistory(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var got []audit.Event
	rec.DecodeEnvelope(t, &got)
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].EventType != audit.EventDocumentUpdated {
		t.Errorf("newest = %q, want %q", got[0].EventType, audit.EventDocumentUpdated)
	}
}

func TestServeEventTypes(t *testing.T) {
	h, _, _ := seed(t)

	rec := testutil.NewRecorder()
	h.ServeEventTypes(rec, testutil.NewAuthenticatedRequest("GET", "/", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, audit.EventReceiptAdded)
	rec.AssertContains(t, audit.EventPresidentReplaced)
	rec.AssertContains(t, audit.EventStaffAccountCreated)
}
