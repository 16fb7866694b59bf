// internal/app/store/orphanedfiles/store.go
package orphanedfiles

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxBackoff caps the wait between sweep attempts for one file.
const MaxBackoff = 24 * time.Hour

// File is a stored upload that could not be removed when its document was
// replaced. The sweeper retries until the delete succeeds.
type File struct {
	ID            primitive.ObjectID  `bson:"_id"`
	FileName      string              `bson:"file_name"`
	DocumentID    *primitive.ObjectID `bson:"document_id,omitempty"`
	LastError     string              `bson:"last_error"`
	Attempts      int                 `bson:"attempts"`
	NextAttemptAt time.Time           `bson:"next_attempt_at"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("orphaned_files")}
}

// Record notes fileName as orphaned. Recording the same file twice keeps one
// record and refreshes its error.
func (s *Store) Record(ctx context.Context, fileName string, docID *primitive.ObjectID, cause error) error {
	now := time.Now().UTC()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	set := bson.M{"last_error": msg, "updated_at": now}
	if docID != nil {
		set["document_id"] = *docID
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"file_name": fileName},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				"_id":             primitive.NewObjectID(),
				"attempts":        0,
				"next_attempt_at": now,
				"created_at":      now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Due returns up to limit files whose next attempt is at or before now,
// oldest first.
func (s *Store) Due(ctx context.Context, now time.Time, limit int64) ([]File, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := s.c.Find(ctx,
		bson.M{"next_attempt_at": bson.M{"$lte": now}},
		options.Find().SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []File{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve drops the record once the file is gone.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Retry records a failed sweep and pushes the next attempt out. The wait
// doubles per attempt up to MaxBackoff.
func (s *Store) Retry(ctx context.Context, f File, base time.Duration, cause error) error {
	now := time.Now().UTC()
	attempts := f.Attempts + 1
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": f.ID},
		bson.M{
			"$set": bson.M{
				"attempts":        attempts,
				"last_error":      cause.Error(),
				"next_attempt_at": now.Add(Backoff(base, attempts)),
				"updated_at":      now,
			},
		},
	)
	return err
}

// Count returns how many orphaned files are outstanding.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// Backoff is base doubled attempts-1 times, capped at MaxBackoff.
func Backoff(base time.Duration, attempts int) time.Duration {
	if base <= 0 {
		base = time.Minute
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= MaxBackoff {
			return MaxBackoff
		}
	}
	return d
}
