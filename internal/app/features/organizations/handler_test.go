package organizations_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/accredithub/internal/app/features/organizations"
	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	userstore "github.com/dalemusser/accredithub/internal/app/store/users"
	"github.com/dalemusser/accredithub/internal/app/system/indexes"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*organizations.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	handler := organizations.NewHandler(db, nil, nil, nil, zap.NewNop())
	return handler, testutil.NewFixtures(t, db)
}

func registerRequest(user testutil.TestUser, name, acronym string) *http.Request {
	req := testutil.NewJSONRequest("POST", "/api/organizations/initial-profile", map[string]string{
		"orgName":    name,
		"orgAcronym": acronym,
		"orgClass":   "Local",
		"orgEmail":   "org@example.edu",
	})
	return testutil.WithUser(req, user)
}

func countProfiles(t *testing.T, fx *testutil.Fixtures, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := fx.DB().Collection("organization_profiles").CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("count profiles: %v", err)
	}
	return n
}

func TestHandleInitialProfile_Creates(t *testing.T) {
	h, fx := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.HandleInitialProfile(rec, registerRequest(testutil.SDUUser(), "Computer Society", "CS"))
	rec.AssertStatus(t, http.StatusCreated)

	var p models.OrganizationProfile
	rec.DecodeEnvelope(t, &p)
	if p.OrgAcronym != "CS" || !p.IsActive || !p.OverallStatus.IsPending() {
		t.Errorf("profile = %+v", p)
	}
	if p.OrganizationID.IsZero() {
		t.Error("expected an organization to be created")
	}
	if n := countProfiles(t, fx, bson.M{"is_active": true}); n != 1 {
		t.Errorf("active profiles = %d, want 1", n)
	}
}

func TestHandleInitialProfile_DuplicateAcronymCaseInsensitive(t *testing.T) {
	h, fx := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.HandleInitialProfile(rec, registerRequest(testutil.SDUUser(), "Alpha Beta Club", "ABC"))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	h.HandleInitialProfile(rec, registerRequest(testutil.SDUUser(), "Another Name", "abc"))
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "DUPLICATE_ORGANIZATION_PROFILE")

	if n := countProfiles(t, fx, bson.M{}); n != 1 {
		t.Errorf("profiles = %d, want 1", n)
	}
}

func TestHandleInitialProfile_DuplicateName(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")

	rec := testutil.NewRecorder()
	h.HandleInitialProfile(rec, registerRequest(testutil.SDUUser(), "computer society", "COMSOC"))
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "DUPLICATE_ORGANIZATION_NAME")

	if n := countProfiles(t, fx, bson.M{}); n != 1 {
		t.Errorf("profiles = %d, want 1", n)
	}
}

func TestHandleInitialProfile_ReusesOrganization(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org, prev := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")
	if err := profilestore.New(fx.DB()).AllowReuse(ctx, prev.ID); err != nil {
		t.Fatalf("AllowReuse: %v", err)
	}

	rec := testutil.NewRecorder()
	h.HandleInitialProfile(rec, registerRequest(testutil.SDUUser(), "Computer Society", "cs"))
	rec.AssertStatus(t, http.StatusCreated)

	var p models.OrganizationProfile
	rec.DecodeEnvelope(t, &p)
	if p.OrganizationID != org.ID {
		t.Errorf("OrganizationID = %v, want %v", p.OrganizationID, org.ID)
	}

	old, err := profilestore.New(fx.DB()).GetByID(ctx, prev.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if old.IsActive {
		t.Error("previous profile should be deactivated")
	}
	if n := countProfiles(t, fx, bson.M{"is_active": true}); n != 1 {
		t.Errorf("active profiles = %d, want 1", n)
	}
}

func TestHandleInitialProfile_LinksStudentLeader(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, prev := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")
	if err := profilestore.New(fx.DB()).AllowReuse(ctx, prev.ID); err != nil {
		t.Fatalf("AllowReuse: %v", err)
	}
	leader := fx.CreateUser(ctx, "Lea Santos", "lea@example.edu", "student-leader", &prev.ID)

	user := testutil.StudentLeader(prev.ID)
	user.ID = leader.ID.Hex()

	rec := testutil.NewRecorder()
	h.HandleInitialProfile(rec, registerRequest(user, "Computer Society", "CS"))
	rec.AssertStatus(t, http.StatusCreated)

	var p models.OrganizationProfile
	rec.DecodeEnvelope(t, &p)

	u, err := userstore.New(fx.DB()).GetByID(ctx, leader.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.OrganizationProfileID == nil || *u.OrganizationProfileID != p.ID {
		t.Errorf("leader profile = %v, want %v", u.OrganizationProfileID, p.ID)
	}
}

func TestHandleInitialProfile_Invalid(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing acronym", map[string]string{"orgName": "X", "orgClass": "Local"}},
		{"bad email", map[string]string{"orgName": "X", "orgAcronym": "X", "orgClass": "Local", "orgEmail": "nope"}},
		{"bad adviser id", map[string]string{"orgName": "X", "orgAcronym": "X", "orgClass": "Local", "adviserId": "zzz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest("POST", "/api/organizations/initial-profile", tt.body), testutil.SDUUser())
			rec := testutil.NewRecorder()
			h.HandleInitialProfile(rec, req)
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestServeProfile_Tenancy(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, mine := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")
	_, other := fx.CreateOrgWithProfile(ctx, "Math Club", "MC")

	tests := []struct {
		name   string
		user   testutil.TestUser
		target string
		want   int
	}{
		{"own profile", testutil.StudentLeader(mine.ID), mine.ID.Hex(), http.StatusOK},
		{"other profile", testutil.StudentLeader(mine.ID), other.ID.Hex(), http.StatusForbidden},
		{"reviewer any profile", testutil.AdviserUser(), other.ID.Hex(), http.StatusOK},
		{"unknown", testutil.AdminUser(), "64b7f0c2a1b2c3d4e5f60718", http.StatusNotFound},
		{"malformed", testutil.AdminUser(), "nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewAuthenticatedRequest("GET", "/api/organization-profiles/"+tt.target, tt.user)
			req = testutil.WithChiURLParam(req, "id", tt.target)
			rec := testutil.NewRecorder()
			h.ServeProfile(rec, req)
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestHandleReview(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, p := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")

	tests := []struct {
		name      string
		body      map[string]string
		user      testutil.TestUser
		want      string
		wantNotes string
	}{
		{"revision by adviser", map[string]string{"status": "Revision", "revisionNotes": "Fix the logo"}, testutil.AdviserUser(), "Revision from Adviser", "Fix the logo"},
		{"approval clears notes", map[string]string{"status": "Approved", "revisionNotes": "ignored"}, testutil.SDUUser(), "Approved", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest("PUT", "/", tt.body), tt.user)
			req = testutil.WithChiURLParam(req, "id", p.ID.Hex())
			rec := testutil.NewRecorder()
			h.HandleReview(rec, req)
			rec.AssertStatus(t, http.StatusOK)

			got, err := profilestore.New(fx.DB()).GetByID(ctx, p.ID)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if got.OverallStatus.String() != tt.want || got.RevisionNotes != tt.wantNotes {
				t.Errorf("status = %q notes = %q, want %q %q", got.OverallStatus, got.RevisionNotes, tt.want, tt.wantNotes)
			}
		})
	}
}

func TestServeList_FiltersByStatus(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, a := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")
	fx.CreateOrgWithProfile(ctx, "Math Club", "MC")
	fx.SetProfileStatus(ctx, a.ID, models.ReviewApproved())

	req := testutil.NewAuthenticatedRequest("GET", "/api/organization-profiles?status=Approved", testutil.SDUUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var list []models.OrganizationProfile
	rec.DecodeEnvelope(t, &list)
	if len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("list = %+v, want only %v", list, a.ID)
	}

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/api/organization-profiles?status=Bogus", testutil.SDUUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleAllowReuse(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, p := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")

	req := testutil.NewAuthenticatedRequest("POST", "/", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", p.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleAllowReuse(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := profilestore.New(fx.DB()).GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsAllowedForReuse {
		t.Error("expected profile to be reusable")
	}
}

func TestHandleSetAdviser(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, p := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")
	adviser := fx.CreateUser(ctx, "Prof Reyes", "reyes@example.edu", "adviser", nil)
	dean := fx.CreateUser(ctx, "Dean Cruz", "dean@example.edu", "dean", nil)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"adviser", adviser.ID.Hex(), http.StatusOK},
		{"not an adviser", dean.ID.Hex(), http.StatusBadRequest},
		{"unknown user", "64b7f0c2a1b2c3d4e5f60718", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest("PUT", "/", map[string]string{"adviserId": tt.id}), testutil.AdminUser())
			req = testutil.WithChiURLParam(req, "id", p.ID.Hex())
			rec := testutil.NewRecorder()
			h.HandleSetAdviser(rec, req)
			rec.AssertStatus(t, tt.want)
		})
	}
}
