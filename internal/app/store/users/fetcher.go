package userstore

import (
	"context"

	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher loads the current state of a signed-in user so that a disabled
// account or a changed profile link is seen without signing in again.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a Fetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// disabled, or if any error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":                     1,
		"name":                    1,
		"email":                   1,
		"position":                1,
		"status":                  1,
		"organization_profile_id": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		return nil
	}
	if u.Status == StatusDisabled {
		return nil
	}
	return SessionUserOf(&u)
}

// SessionUserOf is the session view of u.
func SessionUserOf(u *models.User) *auth.SessionUser {
	su := &auth.SessionUser{
		ID:       u.ID.Hex(),
		Name:     u.Name,
		Email:    u.Email,
		Position: u.Position,
	}
	if u.OrganizationProfileID != nil {
		su.OrganizationProfileID = u.OrganizationProfileID.Hex()
	}
	return su
}
