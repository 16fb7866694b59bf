package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	return WithChiURLParams(r, map[string]string{key: value})
}

// WithChiURLParams adds several chi URL parameters at once.
func WithChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates a test organization with the given name.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateProfile creates an active, Pending organization profile under org.
func (f *Fixtures) CreateProfile(ctx context.Context, org models.Organization, acronym string) models.OrganizationProfile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.OrganizationProfile{
		ID:             primitive.NewObjectID(),
		OrganizationID: org.ID,
		OrgName:        org.Name,
		OrgAcronym:     acronym,
		AcronymCI:      text.Fold(acronym),
		OrgClass:       "Local",
		OrgStatus:      "New",
		OverallStatus:  models.ReviewPending(),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("organization_profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test organization profile: %v", err)
	}
	return p
}

// CreateOrgWithProfile is a shortcut for CreateOrganization + CreateProfile.
func (f *Fixtures) CreateOrgWithProfile(ctx context.Context, name, acronym string) (models.Organization, models.OrganizationProfile) {
	f.t.Helper()
	org := f.CreateOrganization(ctx, name)
	return org, f.CreateProfile(ctx, org, acronym)
}

// CreateUser creates a test user. profileID is required for student leaders.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, position string, profileID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:                    primitive.NewObjectID(),
		Name:                  name,
		Email:                 email,
		EmailCI:               text.Fold(email),
		Position:              position,
		OrganizationProfileID: profileID,
		Status:                "active",
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateDocument creates Document metadata without any stored bytes.
func (f *Fixtures) CreateDocument(ctx context.Context, profileID primitive.ObjectID, label, fileName string) models.Document {
	f.t.Helper()

	now := time.Now().UTC()
	doc := models.Document{
		ID:                    primitive.NewObjectID(),
		OrganizationProfileID: profileID,
		Label:                 label,
		FileName:              fileName,
		Status:                models.ReviewPending(),
		Logs:                  []models.DocumentLog{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if _, err := f.db.Collection("documents").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test document: %v", err)
	}
	return doc
}

// SetProfileStatus overwrites a profile's overall status.
func (f *Fixtures) SetProfileStatus(ctx context.Context, profileID primitive.ObjectID, s models.ReviewStatus) {
	f.t.Helper()
	if _, err := f.db.Collection("organization_profiles").UpdateByID(ctx, profileID,
		bson.M{"$set": bson.M{"overall_status": s}}); err != nil {
		f.t.Fatalf("failed to set profile status: %v", err)
	}
}
