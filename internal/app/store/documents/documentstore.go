// internal/app/store/documents/documentstore.go
package documentstore

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

var ErrNotFound = errors.New("document not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("documents")}
}

// Create inserts d as a Pending, unpinned document with a single log entry.
func (s *Store) Create(ctx context.Context, d models.Document, actor string) (models.Document, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.Label = strings.TrimSpace(d.Label)
	d.Status = models.ReviewPending()
	d.RevisionNotes = ""
	d.IsPinned = false
	d.Logs = []models.DocumentLog{{At: now, Actor: actor, Message: "Uploaded " + d.FileName}}
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Document{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Document, error) {
	var d models.Document
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Document{}, ErrNotFound
		}
		return models.Document{}, err
	}
	return d, nil
}

// GetByIDs loads documents by id in no particular order. Missing ids are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Document, error) {
	out := []models.Document{}
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByProfile returns a profile's documents, pinned first then newest.
func (s *Store) ListByProfile(ctx context.Context, profileID primitive.ObjectID) ([]models.Document, error) {
	cur, err := s.c.Find(ctx, bson.M{"organization_profile_id": profileID},
		options.Find().SetSort(bson.D{
			{Key: "is_pinned", Value: -1},
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Document{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FileMeta describes a newly stored file replacing a document's old one.
type FileMeta struct {
	FileName    string
	ContentType string
	Size        int64
}

// Patch is a partial document update. Nil fields are left alone.
type Patch struct {
	Label *string
	File  *FileMeta
}

// Update applies p and appends one log entry naming actor. A new file resets
// the status to Pending. It returns the document as it was before the update,
// so the caller can remove the replaced file, and as it is after.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch, actor string) (before, after models.Document, err error) {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	var changes []string
	if p.Label != nil {
		set["label"] = strings.TrimSpace(*p.Label)
		changes = append(changes, "label")
	}
	if p.File != nil {
		set["file_name"] = p.File.FileName
		set["content_type"] = p.File.ContentType
		set["size"] = p.File.Size
		set["status"] = models.ReviewPending()
		set["revision_notes"] = ""
		changes = append(changes, "file")
	}
	msg := "Updated"
	if len(changes) > 0 {
		msg = "Updated " + strings.Join(changes, ", ")
	}

	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{
			"$set":  set,
			"$push": pushLog(models.DocumentLog{At: now, Actor: actor, Message: msg}),
		},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Document{}, models.Document{}, ErrNotFound
		}
		return models.Document{}, models.Document{}, err
	}
	after, err = s.GetByID(ctx, id)
	return before, after, err
}

// AppendLog adds one entry to the document's audit trail.
func (s *Store) AppendLog(ctx context.Context, id primitive.ObjectID, entry models.DocumentLog) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$push": pushLog(entry)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePin flips is_pinned in one server-side update and returns the result.
func (s *Store) TogglePin(ctx context.Context, id primitive.ObjectID) (models.Document, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"is_pinned":  bson.M{"$not": bson.A{"$is_pinned"}},
			"updated_at": "$$NOW",
		}}},
	}
	var d models.Document
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Document{}, ErrNotFound
		}
		return models.Document{}, err
	}
	return d, nil
}

// SetReview records a reviewer decision and logs it.
func (s *Store) SetReview(ctx context.Context, id primitive.ObjectID, status models.ReviewStatus, notes, actor string) (models.Document, error) {
	now := time.Now().UTC()
	msg := "Status set to " + status.String()
	var d models.Document
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"status":         status,
				"revision_notes": notes,
				"updated_at":     now,
			},
			"$push": pushLog(models.DocumentLog{At: now, Actor: actor, Message: msg}),
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Document{}, ErrNotFound
		}
		return models.Document{}, err
	}
	return d, nil
}

// pushLog appends to logs. The trail is append-only; entries are never
// trimmed or rewritten.
func pushLog(entry models.DocumentLog) bson.M {
	return bson.M{"logs": entry}
}
