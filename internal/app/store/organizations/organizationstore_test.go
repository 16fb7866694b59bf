package organizationstore_test

import (
	"errors"
	"testing"

	organizationstore "github.com/dalemusser/accredithub/internal/app/store/organizations"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Organization{Name: "  Computer Society "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Computer Society" {
		t.Errorf("Name = %q, want trimmed", created.Name)
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if created.Status != organizationstore.StatusActive {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("organizations").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_ci", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	if _, err := store.Create(ctx, models.Organization{Name: "Chess Club"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err = store.Create(ctx, models.Organization{Name: "CHESS CLUB"})
	if !errors.Is(err, organizationstore.ErrDuplicateOrganization) {
		t.Errorf("expected ErrDuplicateOrganization, got %v", err)
	}
}

func TestStore_GetByName_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Organization{Name: "Math Circle"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByName(ctx, "math circle")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByName returned %s, want %s", got.ID.Hex(), created.ID.Hex())
	}

	if _, err := store.GetByName(ctx, "Nobody"); !errors.Is(err, organizationstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, organizationstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Rename(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Organization{Name: "Old Name"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Rename(ctx, created.ID, "New Name"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "New Name" {
		t.Errorf("Name = %q", got.Name)
	}
	if err := store.Rename(ctx, primitive.NewObjectID(), "x"); !errors.Is(err, organizationstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
