// internal/app/store/accreditations/accreditationstore.go
package accreditationstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/accredithub/internal/app/system/provision"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("accreditation not found")
	ErrUnknownLink    = errors.New("unknown accreditation link")
	ErrUnknownLegal   = errors.New("unknown legal document kind")
	errNilReferenceID = errors.New("reference id is required")
)

// Links that LinkIfUnset may fill.
const (
	LinkRoster          = "roster_id"
	LinkPresident       = "president_profile_id"
	LinkFinancialReport = "financial_report_id"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("accreditations")}
}

func activeFilter(profileID primitive.ObjectID) bson.M {
	return bson.M{"organization_profile_id": profileID, "is_active": true}
}

// GetOrCreateActive returns the profile's active accreditation, creating an
// empty Pending one when there is none. It reports whether it created one.
// Concurrent first calls converge on one document through the unique partial
// index on (organization_profile_id) where is_active.
func (s *Store) GetOrCreateActive(ctx context.Context, profileID, orgID primitive.ObjectID) (models.Accreditation, bool, error) {
	now := time.Now().UTC()
	defaults := bson.M{
		"roster_id":                   nil,
		"president_profile_id":        nil,
		"financial_report_id":         nil,
		"joint_statement_id":          nil,
		"pledge_against_hazing_id":    nil,
		"constitution_and_by_laws_id": nil,
		"overall_status":              models.ReviewPending(),
		"created_at":                  now,
		"updated_at":                  now,
	}
	if !orgID.IsZero() {
		defaults["organization_id"] = orgID
	}

	var a models.Accreditation
	created, err := provision.FindOrCreate(ctx, s.c, activeFilter(profileID), defaults, &a)
	if err != nil {
		return models.Accreditation{}, false, err
	}
	return a, created, nil
}

// GetActive returns the active accreditation without creating one.
func (s *Store) GetActive(ctx context.Context, profileID primitive.ObjectID) (models.Accreditation, error) {
	return s.findOne(ctx, activeFilter(profileID))
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Accreditation, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Accreditation, error) {
	var a models.Accreditation
	if err := s.c.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Accreditation{}, ErrNotFound
		}
		return models.Accreditation{}, err
	}
	return a, nil
}

// LinkIfUnset sets field on the profile's active accreditation only when it
// is still empty. It is a no-op when there is no active accreditation or the
// link is already set, so callers may repeat it freely.
func (s *Store) LinkIfUnset(ctx context.Context, profileID primitive.ObjectID, field string, id primitive.ObjectID) (bool, error) {
	switch field {
	case LinkRoster, LinkPresident, LinkFinancialReport:
	default:
		return false, ErrUnknownLink
	}
	if id.IsZero() {
		return false, errNilReferenceID
	}
	filter := activeFilter(profileID)
	filter[field] = nil // matches null or missing
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		field:        id,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return false, fmt.Errorf("link %s: %w", field, err)
	}
	return res.ModifiedCount == 1, nil
}

// SetPresident points the active accreditation at a new current president,
// replacing any earlier link.
func (s *Store) SetPresident(ctx context.Context, profileID, presidentID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, activeFilter(profileID), bson.M{"$set": bson.M{
		LinkPresident: presidentID,
		"updated_at":  time.Now().UTC(),
	}})
	return err
}

// LinkLegal attaches a legal document to an accreditation.
func (s *Store) LinkLegal(ctx context.Context, id primitive.ObjectID, kind models.LegalDocumentKind, docID primitive.ObjectID) error {
	field := kind.Field()
	if field == "" {
		return ErrUnknownLegal
	}
	return s.set(ctx, id, bson.M{field: docID})
}

// SetReview records the overall decision on an accreditation.
func (s *Store) SetReview(ctx context.Context, id primitive.ObjectID, status models.ReviewStatus) error {
	return s.set(ctx, id, bson.M{"overall_status": status})
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

// Deactivate ends the profile's current cycle. The next GetOrCreateActive
// provisions a fresh accreditation; the old one is kept as history.
func (s *Store) Deactivate(ctx context.Context, profileID primitive.ObjectID) (primitive.ObjectID, error) {
	var a models.Accreditation
	err := s.c.FindOneAndUpdate(ctx, activeFilter(profileID),
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, ErrNotFound
		}
		return primitive.NilObjectID, err
	}
	return a.ID, nil
}

// History lists every accreditation of a profile, newest first.
func (s *Store) History(ctx context.Context, profileID primitive.ObjectID) ([]models.Accreditation, error) {
	cur, err := s.c.Find(ctx, bson.M{"organization_profile_id": profileID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Accreditation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
