// internal/app/store/rosters/rosterstore.go
package rosterstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/accredithub/internal/app/system/provision"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("roster not found")
	ErrMemberNotFound = errors.New("roster member not found")
)

// Store covers rosters and their members.
type Store struct {
	rosters *mongo.Collection
	members *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		rosters: db.Collection("rosters"),
		members: db.Collection("roster_members"),
	}
}

// GetOrCreate returns the profile's roster, creating an empty one on first
// access. The unique index on organization_profile_id keeps it single.
func (s *Store) GetOrCreate(ctx context.Context, profileID primitive.ObjectID) (models.Roster, bool, error) {
	now := time.Now().UTC()
	var r models.Roster
	created, err := provision.FindOrCreate(ctx, s.rosters,
		bson.M{"organization_profile_id": profileID},
		bson.M{
			"members":        bson.A{},
			"is_complete":    false,
			"overall_status": models.ReviewPending(),
			"created_at":     now,
			"updated_at":     now,
		}, &r)
	if err != nil {
		return models.Roster{}, false, err
	}
	return r, created, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Roster, error) {
	return s.findRoster(ctx, bson.M{"_id": id})
}

// GetByProfile returns the profile's roster without creating one.
func (s *Store) GetByProfile(ctx context.Context, profileID primitive.ObjectID) (models.Roster, error) {
	return s.findRoster(ctx, bson.M{"organization_profile_id": profileID})
}

func (s *Store) findRoster(ctx context.Context, filter bson.M) (models.Roster, error) {
	var r models.Roster
	if err := s.rosters.FindOne(ctx, filter).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Roster{}, ErrNotFound
		}
		return models.Roster{}, err
	}
	return r, nil
}

// AddMember stores m under rosterID and appends it to the roster's member list.
func (s *Store) AddMember(ctx context.Context, rosterID primitive.ObjectID, m models.RosterMember) (models.RosterMember, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.RosterID = rosterID
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Position = strings.TrimSpace(m.Position)
	if m.Position == "" {
		m.Position = models.PositionMember
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.members.InsertOne(ctx, m); err != nil {
		return models.RosterMember{}, fmt.Errorf("insert roster member: %w", err)
	}
	res, err := s.rosters.UpdateByID(ctx, rosterID, bson.M{
		"$push": bson.M{"members": m.ID},
		"$set":  bson.M{"updated_at": now},
	})
	if err == nil && res.MatchedCount == 0 {
		err = ErrNotFound
	}
	if err != nil {
		// keep no member that no roster lists
		_, _ = s.members.DeleteOne(ctx, bson.M{"_id": m.ID})
		return models.RosterMember{}, err
	}
	return m, nil
}

func (s *Store) GetMember(ctx context.Context, id primitive.ObjectID) (models.RosterMember, error) {
	var m models.RosterMember
	if err := s.members.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.RosterMember{}, ErrMemberNotFound
		}
		return models.RosterMember{}, err
	}
	return m, nil
}

// Members returns a roster's members sorted by name.
func (s *Store) Members(ctx context.Context, rosterID primitive.ObjectID) ([]models.RosterMember, error) {
	cur, err := s.members.Find(ctx, bson.M{"roster_id": rosterID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.RosterMember{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MemberPatch is a partial member update. Nil fields are left alone.
type MemberPatch struct {
	Name           *string
	Email          *string
	Position       *string
	Status         *string
	ProfilePicture *string
	ContactNumber  *string
	Address        *string
	BirthDate      *time.Time
}

func (p MemberPatch) set() bson.M {
	set := bson.M{}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
		}
	}
	str("name", p.Name)
	str("email", p.Email)
	str("position", p.Position)
	str("status", p.Status)
	str("profile_picture", p.ProfilePicture)
	str("contact_number", p.ContactNumber)
	str("address", p.Address)
	if p.BirthDate != nil {
		set["birth_date"] = *p.BirthDate
	}
	return set
}

// UpdateMember applies p and returns the updated member.
func (s *Store) UpdateMember(ctx context.Context, id primitive.ObjectID, p MemberPatch) (models.RosterMember, error) {
	set := p.set()
	set["updated_at"] = time.Now().UTC()
	var m models.RosterMember
	err := s.members.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.RosterMember{}, ErrMemberNotFound
		}
		return models.RosterMember{}, err
	}
	return m, nil
}

// RemoveMember deletes a member and drops it from its roster's list.
func (s *Store) RemoveMember(ctx context.Context, id primitive.ObjectID) (models.RosterMember, error) {
	var m models.RosterMember
	if err := s.members.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.RosterMember{}, ErrMemberNotFound
		}
		return models.RosterMember{}, err
	}
	_, err := s.rosters.UpdateByID(ctx, m.RosterID, bson.M{
		"$pull": bson.M{"members": m.ID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return m, err
}

// SetReview records a reviewer decision on the whole roster.
func (s *Store) SetReview(ctx context.Context, id primitive.ObjectID, status models.ReviewStatus, notes string) (models.Roster, error) {
	return s.update(ctx, id, bson.M{"overall_status": status, "revision_notes": notes})
}

// MarkComplete sets is_complete. Nothing in this package clears it.
func (s *Store) MarkComplete(ctx context.Context, id primitive.ObjectID) (models.Roster, error) {
	return s.update(ctx, id, bson.M{"is_complete": true})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Roster, error) {
	set["updated_at"] = time.Now().UTC()
	var r models.Roster
	err := s.rosters.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Roster{}, ErrNotFound
		}
		return models.Roster{}, err
	}
	return r, nil
}
