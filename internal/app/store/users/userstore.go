package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// User statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// BcryptCost is the work factor for stored passwords.
const BcryptCost = 12

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrNotFound       = errors.New("user not found")
	errBadPosition    = errors.New(`position must be one of "student-leader"|"adviser"|"dean"|"sdu"|"sdu-coordinator"|"admin"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errProfileNeeded  = errors.New("student leaders must have organization_profile_id")
)

// Create inserts a new user after normalizing & validating fields. password
// is hashed with bcrypt; an empty password leaves the account unable to sign in.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	u.EmailCI = text.Fold(u.Email)
	u.Position = strings.ToLower(strings.TrimSpace(u.Position))
	if u.Status == "" {
		u.Status = StatusActive
	}

	if !authz.IsValidPosition(u.Position) {
		return models.User{}, errBadPosition
	}
	if u.Status != StatusActive && u.Status != StatusDisabled {
		return models.User{}, errBadStatus
	}
	if u.Position == authz.StudentLeader && u.OrganizationProfileID == nil {
		return models.User{}, errProfileNeeded
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = string(hash)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// EmailExists reports whether any user holds email (case-insensitive).
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// CheckPassword reports whether password matches the user's stored hash.
func CheckPassword(u *models.User, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ListByPosition returns users holding position, sorted by name.
func (s *Store) ListByPosition(ctx context.Context, position string) ([]models.User, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"position": strings.ToLower(position), "status": StatusActive},
		options.Find().
			SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
			SetProjection(bson.M{"password_hash": 0}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAdvisers is the advisers view: active users with position adviser.
func (s *Store) ListAdvisers(ctx context.Context) ([]models.User, error) {
	return s.ListByPosition(ctx, authz.Adviser)
}

// SetOrganizationProfile points a user at the organization profile they
// manage. Used when a reused organization is registered under a new profile.
func (s *Store) SetOrganizationProfile(ctx context.Context, id, profileID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"organization_profile_id": profileID,
		"updated_at":              time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if status != StatusActive && status != StatusDisabled {
		return errBadStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Promote makes an existing account an active admin. Used by the startup
// admin bootstrap only.
func (s *Store) Promote(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"position":   authz.Admin,
			"status":     StatusActive,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{"organization_profile_id": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
