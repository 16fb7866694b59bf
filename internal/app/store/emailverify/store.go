// internal/app/store/emailverify/store.go
package emailverify

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the number of digits in a registration code.
	CodeLength = 6
	// DefaultExpiry is how long a code is valid.
	DefaultExpiry = 10 * time.Minute
	BcryptCost    = 10
	// MaxVerifyAttempts bounds guesses against one code.
	MaxVerifyAttempts = 5
	// MaxResends bounds how many codes one email may request per ResendWindow.
	MaxResends   = 3
	ResendWindow = 10 * time.Minute
)

var (
	ErrNotFound        = errors.New("verification not found or expired")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrTooManyResends  = errors.New("too many verification codes requested")
)

// Verification is a pending registration code for one email address.
// Expired records are removed by the TTL index on expires_at.
type Verification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`
	EmailCI     string             `bson:"email_ci"`
	CodeHash    string             `bson:"code_hash"`
	ExpiresAt   time.Time          `bson:"expires_at"`
	CreatedAt   time.Time          `bson:"created_at"`
	Attempts    int                `bson:"attempts"`
	ResendCount int                `bson:"resend_count"`
	WindowStart time.Time          `bson:"window_start"`
}

type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store. A non-positive expiry means DefaultExpiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("email_verifications"),
		expiry: expiry,
	}
}

func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Create issues a fresh code for email, replacing any earlier one, and returns
// the plain code for delivery. Requests inside ResendWindow are counted and
// refused past MaxResends.
func (s *Store) Create(ctx context.Context, email string) (string, error) {
	now := time.Now().UTC()
	emailCI := text.Fold(email)

	var existing Verification
	err := s.c.FindOne(ctx, bson.M{"email_ci": emailCI}).Decode(&existing)
	found := err == nil
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return "", fmt.Errorf("load verification: %w", err)
	}

	resendCount := 0
	windowStart := now
	if found && now.Before(existing.WindowStart.Add(ResendWindow)) {
		if existing.ResendCount >= MaxResends {
			return "", ErrTooManyResends
		}
		windowStart = existing.WindowStart
		resendCount = existing.ResendCount + 1
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	v := Verification{
		ID:          primitive.NewObjectID(),
		Email:       email,
		EmailCI:     emailCI,
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		ResendCount: resendCount,
		WindowStart: windowStart,
	}
	if found {
		v.ID = existing.ID
	}
	if _, err := s.c.ReplaceOne(ctx, bson.M{"email_ci": emailCI}, v, options.Replace().SetUpsert(true)); err != nil {
		return "", fmt.Errorf("store verification: %w", err)
	}
	return code, nil
}

// VerifyCode checks code for email. A correct code consumes the record.
func (s *Store) VerifyCode(ctx context.Context, email, code string) (*Verification, error) {
	v, err := s.Check(ctx, email, code)
	if err != nil {
		return nil, err
	}
	if err := s.Consume(ctx, v.ID); err != nil {
		return nil, err
	}
	return v, nil
}

// Check verifies code for email without consuming it. Every call counts
// toward MaxVerifyAttempts.
func (s *Store) Check(ctx context.Context, email, code string) (*Verification, error) {
	var v Verification
	err := s.c.FindOne(ctx, bson.M{
		"email_ci":   text.Fold(email),
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if v.Attempts >= MaxVerifyAttempts {
		return nil, ErrTooManyAttempts
	}

	// counted before comparing so parallel guesses cannot exceed the limit unseen
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": v.ID}, bson.M{"$inc": bson.M{"attempts": 1}}); err != nil {
		return nil, fmt.Errorf("count attempt: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)); err != nil {
		return nil, ErrInvalidCode
	}
	return &v, nil
}

// Consume deletes a checked verification so its code cannot be used again.
func (s *Store) Consume(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("consume verification: %w", err)
	}
	return nil
}

// Delete removes any pending code for email.
func (s *Store) Delete(ctx context.Context, email string) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"email_ci": text.Fold(email)})
	return err
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
