// internal/app/store/presidents/presidentstore.go
package presidentstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("president profile not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("president_profiles")}
}

// Create inserts a Pending president profile. Linking it as current is the
// caller's job; older profiles of the same organization stay as history.
func (s *Store) Create(ctx context.Context, p models.PresidentProfile) (models.PresidentProfile, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Name = strings.TrimSpace(p.Name)
	if p.ClassSchedule == nil {
		p.ClassSchedule = []models.ClassSchedule{}
	}
	if p.TalentSkills == nil {
		p.TalentSkills = []models.TalentSkill{}
	}
	p.OverallStatus = models.ReviewPending()
	p.RevisionNotes = ""
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.PresidentProfile{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.PresidentProfile, error) {
	var p models.PresidentProfile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PresidentProfile{}, ErrNotFound
		}
		return models.PresidentProfile{}, err
	}
	return p, nil
}

// History lists every president profile filed for an organization profile,
// newest first.
func (s *Store) History(ctx context.Context, profileID primitive.ObjectID) ([]models.PresidentProfile, error) {
	cur, err := s.c.Find(ctx, bson.M{"organization_profile_id": profileID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PresidentProfile{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the editable fields of a president profile with those of
// p. When resetReview is set the status goes back to Pending, as it does
// after any student edit.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p models.PresidentProfile, resetReview bool) (models.PresidentProfile, error) {
	if p.ClassSchedule == nil {
		p.ClassSchedule = []models.ClassSchedule{}
	}
	if p.TalentSkills == nil {
		p.TalentSkills = []models.TalentSkill{}
	}
	set := bson.M{
		"name":             strings.TrimSpace(p.Name),
		"department":       p.Department,
		"course":           p.Course,
		"year":             p.Year,
		"age":              p.Age,
		"sex":              p.Sex,
		"religion":         p.Religion,
		"nationality":      p.Nationality,
		"contact_number":   p.ContactNumber,
		"facebook_account": p.FacebookAccount,
		"profile_picture":  p.ProfilePicture,
		"class_schedule":   p.ClassSchedule,
		"talent_skills":    p.TalentSkills,
		"updated_at":       time.Now().UTC(),
	}
	if resetReview {
		set["overall_status"] = models.ReviewPending()
		set["revision_notes"] = ""
	}
	return s.update(ctx, id, set)
}

// SetReview records a reviewer decision.
func (s *Store) SetReview(ctx context.Context, id primitive.ObjectID, status models.ReviewStatus, notes string) (models.PresidentProfile, error) {
	return s.update(ctx, id, bson.M{
		"overall_status": status,
		"revision_notes": notes,
		"updated_at":     time.Now().UTC(),
	})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.PresidentProfile, error) {
	var p models.PresidentProfile
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PresidentProfile{}, ErrNotFound
		}
		return models.PresidentProfile{}, err
	}
	return p, nil
}
