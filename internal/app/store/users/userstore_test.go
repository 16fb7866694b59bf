package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/accredithub/internal/app/store/users"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func uniqueEmailIndex(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_ci", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
}

func TestStore_Create_Reviewer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:     "  Dean Santos ",
		Email:    "Dean@Example.com",
		Position: "Dean",
	}, "s3cret-pass")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Dean Santos" {
		t.Errorf("Name = %q, want trimmed", created.Name)
	}
	if created.Position != "dean" {
		t.Errorf("Position = %q, want lowercased", created.Position)
	}
	if created.EmailCI == "" {
		t.Error("expected EmailCI to be set")
	}
	if created.Status != userstore.StatusActive {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
	if created.PasswordHash == "" || created.PasswordHash == "s3cret-pass" {
		t.Error("expected password to be stored hashed")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	profileID := primitive.NewObjectID()
	tests := []struct {
		name    string
		user    models.User
		wantErr bool
	}{
		{"leader with profile", models.User{Name: "A", Email: "a@example.com", Position: "student-leader", OrganizationProfileID: &profileID}, false},
		{"leader without profile", models.User{Name: "B", Email: "b@example.com", Position: "student-leader"}, true},
		{"unknown position", models.User{Name: "C", Email: "c@example.com", Position: "janitor"}, true},
		{"bad status", models.User{Name: "D", Email: "d@example.com", Position: "sdu", Status: "banned"}, true},
		{"adviser", models.User{Name: "E", Email: "e@example.com", Position: "adviser"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.user, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("Create err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	uniqueEmailIndex(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "One", Email: "dup@example.com", Position: "sdu"}, ""); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{Name: "Two", Email: "DUP@example.com", Position: "dean"}, "")
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail_AndCheckPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "SDU", Email: "sdu@example.com", Position: "sdu"}, "correct horse"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	u, err := store.GetByEmail(ctx, "  SDU@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if !userstore.CheckPassword(u, "correct horse") {
		t.Error("expected password to match")
	}
	if userstore.CheckPassword(u, "wrong") {
		t.Error("expected wrong password to fail")
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("unknown email: got %v, want ErrNotFound", err)
	}

	ok, err := store.EmailExists(ctx, "sdu@EXAMPLE.com")
	if err != nil || !ok {
		t.Errorf("EmailExists = %v, %v; want true", ok, err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListAdvisers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Zed Adviser", "zed@example.com", "adviser", nil)
	fixtures.CreateUser(ctx, "Amy Adviser", "amy@example.com", "adviser", nil)
	fixtures.CreateUser(ctx, "Dan Dean", "dan@example.com", "dean", nil)

	advisers, err := store.ListAdvisers(ctx)
	if err != nil {
		t.Fatalf("ListAdvisers failed: %v", err)
	}
	if len(advisers) != 2 {
		t.Fatalf("expected 2 advisers, got %d", len(advisers))
	}
	if advisers[0].Name != "Amy Adviser" {
		t.Errorf("expected sorted by name, first = %q", advisers[0].Name)
	}
}

func TestStore_SetOrganizationProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	old := primitive.NewObjectID()
	u := fixtures.CreateUser(ctx, "Leader", "leader@example.com", "student-leader", &old)

	next := primitive.NewObjectID()
	if err := store.SetOrganizationProfile(ctx, u.ID, next); err != nil {
		t.Fatalf("SetOrganizationProfile failed: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.OrganizationProfileID == nil || *got.OrganizationProfileID != next {
		t.Error("expected profile link to be updated")
	}

	if err := store.SetOrganizationProfile(ctx, primitive.NewObjectID(), next); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("unknown user: got %v, want ErrNotFound", err)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	profileID := primitive.NewObjectID()
	u := fixtures.CreateUser(ctx, "Leader", "leader@example.com", "student-leader", &profileID)
	fetcher := userstore.NewFetcher(db)

	su := fetcher.FetchUser(ctx, u.ID.Hex())
	if su == nil {
		t.Fatal("expected a session user")
	}
	if su.OrganizationProfileID != profileID.Hex() || su.Position != "student-leader" {
		t.Errorf("unexpected session user: %+v", su)
	}

	if err := store.SetStatus(ctx, u.ID, userstore.StatusDisabled); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if fetcher.FetchUser(ctx, u.ID.Hex()) != nil {
		t.Error("disabled user should not be returned")
	}
	if fetcher.FetchUser(ctx, "not-an-id") != nil {
		t.Error("malformed id should not be returned")
	}
}
