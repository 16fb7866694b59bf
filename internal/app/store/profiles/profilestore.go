// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/accredithub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateProfile is returned when another active profile holds the acronym.
	ErrDuplicateProfile = errors.New("an active organization profile with this acronym already exists")
	ErrNotFound         = errors.New("organization profile not found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organization_profiles")}
}

// Collection exposes the underlying collection for aggregate readers.
func (s *Store) Collection() *mongo.Collection { return s.c }

// Create inserts p as the active, Pending profile of its organization.
func (s *Store) Create(ctx context.Context, p models.OrganizationProfile) (models.OrganizationProfile, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.OrgName = strings.TrimSpace(p.OrgName)
	p.OrgAcronym = strings.TrimSpace(p.OrgAcronym)
	p.AcronymCI = text.Fold(p.OrgAcronym)
	p.OverallStatus = models.ReviewPending()
	p.RevisionNotes = ""
	p.IsActive = true
	p.IsAllowedForReuse = false
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.OrganizationProfile{}, ErrDuplicateProfile
		}
		return models.OrganizationProfile{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.OrganizationProfile, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetActiveByAcronym returns the active profile holding acronym
// (case-insensitive).
func (s *Store) GetActiveByAcronym(ctx context.Context, acronym string) (models.OrganizationProfile, error) {
	return s.findOne(ctx, bson.M{"acronym_ci": text.Fold(strings.TrimSpace(acronym)), "is_active": true})
}

// GetActiveForOrganization returns the organization's active profile.
func (s *Store) GetActiveForOrganization(ctx context.Context, orgID primitive.ObjectID) (models.OrganizationProfile, error) {
	return s.findOne(ctx, bson.M{"organization_id": orgID, "is_active": true})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.OrganizationProfile, error) {
	var p models.OrganizationProfile
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.OrganizationProfile{}, ErrNotFound
		}
		return models.OrganizationProfile{}, err
	}
	return p, nil
}

// Exists reports whether a profile with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// Deactivate ends a profile's cycle. Only a profile that is still active and
// marked reusable is deactivated; it reports whether one was.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_active": true, "is_allowed_for_reuse": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// SetReview records a reviewer decision.
func (s *Store) SetReview(ctx context.Context, id primitive.ObjectID, status models.ReviewStatus, notes string) error {
	return s.set(ctx, id, bson.M{"overall_status": status, "revision_notes": notes})
}

// AllowReuse lets the next registration with this acronym replace the profile.
func (s *Store) AllowReuse(ctx context.Context, id primitive.ObjectID) error {
	return s.set(ctx, id, bson.M{"is_allowed_for_reuse": true})
}

// SetPresident links the current president profile.
func (s *Store) SetPresident(ctx context.Context, id, presidentID primitive.ObjectID) error {
	return s.set(ctx, id, bson.M{"org_president_id": presidentID})
}

// SetAdviser links the adviser user.
func (s *Store) SetAdviser(ctx context.Context, id, adviserID primitive.ObjectID) error {
	return s.set(ctx, id, bson.M{"adviser_id": adviserID})
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	ActiveOnly     bool
	Status         string // exact overall_status, e.g. "Pending"
	OrganizationID *primitive.ObjectID
	Limit          int64
	Offset         int64
}

// List returns profiles newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.OrganizationProfile, error) {
	filter := bson.M{}
	if f.ActiveOnly {
		filter["is_active"] = true
	}
	if f.Status != "" {
		filter["overall_status"] = f.Status
	}
	if f.OrganizationID != nil {
		filter["organization_id"] = *f.OrganizationID
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.OrganizationProfile{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
