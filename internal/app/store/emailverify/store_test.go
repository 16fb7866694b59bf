package emailverify_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dalemusser/accredithub/internal/app/store/emailverify"
	"github.com/dalemusser/accredithub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNew_Expiry(t *testing.T) {
	db := testutil.SetupTestDB(t)

	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, emailverify.DefaultExpiry},
		{-time.Minute, emailverify.DefaultExpiry},
		{30 * time.Minute, 30 * time.Minute},
	}
	for _, tt := range tests {
		if got := emailverify.New(db, tt.in).Expiry(); got != tt.want {
			t.Errorf("New(%v).Expiry() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStore_Create_CodeFormat(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "leader@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(code) {
		t.Errorf("code %q is not 6 digits", code)
	}

	var doc bson.M
	if err := db.Collection("email_verifications").FindOne(ctx, bson.M{"email_ci": text.Fold("leader@example.com")}).Decode(&doc); err != nil {
		t.Fatalf("find verification: %v", err)
	}
	if doc["code_hash"] == code {
		t.Error("code must be stored hashed")
	}
}

func TestStore_Create_ReplacesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Create(ctx, "leader@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := store.Create(ctx, "LEADER@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	n, err := db.Collection("email_verifications").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one record per email, got %d", n)
	}

	if first != second {
		if _, err := store.VerifyCode(ctx, "leader@example.com", first); !errors.Is(err, emailverify.ErrInvalidCode) {
			t.Errorf("old code: got %v, want ErrInvalidCode", err)
		}
	}
	if _, err := store.VerifyCode(ctx, "leader@example.com", second); err != nil {
		t.Errorf("new code should verify: %v", err)
	}
}

func TestStore_VerifyCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "Leader@Example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	v, err := store.VerifyCode(ctx, "leader@example.com", code)
	if err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if v.Email != "Leader@Example.com" {
		t.Errorf("Email = %q, want original casing", v.Email)
	}

	// single use
	if _, err := store.VerifyCode(ctx, "leader@example.com", code); !errors.Is(err, emailverify.ErrNotFound) {
		t.Errorf("second verify: got %v, want ErrNotFound", err)
	}
}

func TestStore_CheckKeepsCodeUntilConsumed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "leader@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	v, err := store.Check(ctx, "leader@example.com", code)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if _, err := store.Check(ctx, "leader@example.com", code); err != nil {
		t.Fatalf("second Check failed: %v", err)
	}

	if err := store.Consume(ctx, v.ID); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if _, err := store.Check(ctx, "leader@example.com", code); !errors.Is(err, emailverify.ErrNotFound) {
		t.Errorf("after Consume: got %v, want ErrNotFound", err)
	}
}

func TestStore_VerifyCode_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.VerifyCode(ctx, "nobody@example.com", "123456"); !errors.Is(err, emailverify.ErrNotFound) {
		t.Errorf("unknown email: got %v, want ErrNotFound", err)
	}

	code, err := store.Create(ctx, "leader@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if _, err := store.VerifyCode(ctx, "leader@example.com", wrong); !errors.Is(err, emailverify.ErrInvalidCode) {
		t.Errorf("wrong code: got %v, want ErrInvalidCode", err)
	}
}

func TestStore_VerifyCode_TooManyAttempts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "leader@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < emailverify.MaxVerifyAttempts; i++ {
		if _, err := store.VerifyCode(ctx, "leader@example.com", wrong); !errors.Is(err, emailverify.ErrInvalidCode) {
			t.Fatalf("attempt %d: got %v, want ErrInvalidCode", i+1, err)
		}
	}
	if _, err := store.VerifyCode(ctx, "leader@example.com", code); !errors.Is(err, emailverify.ErrTooManyAttempts) {
		t.Errorf("after limit: got %v, want ErrTooManyAttempts", err)
	}
}

func TestStore_VerifyCode_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "leader@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err = db.Collection("email_verifications").UpdateOne(ctx,
		bson.M{"email_ci": text.Fold("leader@example.com")},
		bson.M{"$set": bson.M{"expires_at": time.Now().Add(-time.Minute)}})
	if err != nil {
		t.Fatalf("expire record: %v", err)
	}

	if _, err := store.VerifyCode(ctx, "leader@example.com", code); !errors.Is(err, emailverify.ErrNotFound) {
		t.Errorf("expired code: got %v, want ErrNotFound", err)
	}
}

func TestStore_Create_ResendLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// first request plus MaxResends resends
	for i := 0; i <= emailverify.MaxResends; i++ {
		if _, err := store.Create(ctx, "leader@example.com"); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
	if _, err := store.Create(ctx, "leader@example.com"); !errors.Is(err, emailverify.ErrTooManyResends) {
		t.Errorf("over limit: got %v, want ErrTooManyResends", err)
	}

	// a new window resets the count
	_, err := db.Collection("email_verifications").UpdateOne(ctx,
		bson.M{"email_ci": text.Fold("leader@example.com")},
		bson.M{"$set": bson.M{"window_start": time.Now().Add(-2 * emailverify.ResendWindow)}})
	if err != nil {
		t.Fatalf("age window: %v", err)
	}
	if _, err := store.Create(ctx, "leader@example.com"); err != nil {
		t.Errorf("after window: %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "leader@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, "Leader@example.com"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.VerifyCode(ctx, "leader@example.com", code); !errors.Is(err, emailverify.ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
}
