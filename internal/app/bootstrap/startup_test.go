package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	userstore "github.com/dalemusser/accredithub/internal/app/store/users"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/dalemusser/accredithub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "accredithub",
		SessionKey:     strings.Repeat("k", 32),
		SessionName:    "accredithub-session",
		SessionMaxAge:  time.Hour,
		PublicPrefix:   "/public",
		UploadMaxBytes: 1 << 20,
		AuditLogAuth:   "all",
		AuditLogReview: "db",
		AuditLogAdmin:  "off",

		SessionCleanupInterval: time.Hour,
		OrphanSweepInterval:    time.Hour,
		OrphanSweepBatch:       10,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "bad uri", mutate: func(c *AppConfig) { c.MongoURI = "postgres://x" }, wantErr: "MongoDB URI"},
		{name: "no database", mutate: func(c *AppConfig) { c.MongoDatabase = " " }, wantErr: "mongo_database"},
		{name: "short session key", mutate: func(c *AppConfig) { c.SessionKey = "short" }, wantErr: "session_key"},
		{
			name:    "dev key in prod",
			env:     "prod",
			mutate:  func(c *AppConfig) { c.SessionKey = "dev-only-change-me-please-0123456789ABCDEF" },
			wantErr: "production",
		},
		{name: "relative prefix", mutate: func(c *AppConfig) { c.PublicPrefix = "public" }, wantErr: "public_prefix"},
		{name: "zero upload size", mutate: func(c *AppConfig) { c.UploadMaxBytes = 0 }, wantErr: "upload_max_bytes"},
		{name: "bad audit mode", mutate: func(c *AppConfig) { c.AuditLogReview = "verbose" }, wantErr: "audit_log_review"},
		{name: "bad admin email", mutate: func(c *AppConfig) { c.AdminEmail = "root" }, wantErr: "admin_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := ensureSchema(ctx, db, testLogger()); err != nil {
			t.Fatalf("ensureSchema pass %d failed: %v", i+1, err)
		}
	}

	// the unique email index is in place
	users := userstore.New(db)
	if _, err := users.Create(ctx, models.User{Name: "A", Email: "a@test.com", Position: authz.Adviser}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := users.Create(ctx, models.User{Name: "B", Email: "A@test.com", Position: authz.Adviser}, ""); err != userstore.ErrDuplicateEmail {
		t.Errorf("duplicate email: got %v, want ErrDuplicateEmail", err)
	}
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "root@test.com", "Root", "s3cret-pass", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByEmail(ctx, "root@test.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if u.Position != authz.Admin {
		t.Errorf("position: got %q, want %q", u.Position, authz.Admin)
	}
	if !userstore.CheckPassword(u, "s3cret-pass") {
		t.Error("expected configured password to verify")
	}

	// a second start neither fails nor duplicates
	if err := ensureAdmin(ctx, db, "root@test.com", "Root", "other", testLogger()); err != nil {
		t.Fatalf("second ensureAdmin failed: %v", err)
	}
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("users: got %d, want 1", n)
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	existing, err := users.Create(ctx, models.User{Name: "Dana", Email: "dana@test.com", Position: authz.Adviser}, "keep-me")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := users.SetStatus(ctx, existing.ID, userstore.StatusDisabled); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	if err := ensureAdmin(ctx, db, "DANA@test.com", "", "", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := users.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.Position != authz.Admin {
		t.Errorf("position: got %q, want %q", u.Position, authz.Admin)
	}
	if u.Status != userstore.StatusActive {
		t.Errorf("status: got %q, want %q", u.Status, userstore.StatusActive)
	}
	if !userstore.CheckPassword(u, "keep-me") {
		t.Error("expected existing password to be kept")
	}
}

func TestEnsureAdmin_NoEmailIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "", "", "", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
	n, _ := db.Collection("users").CountDocuments(ctx, bson.M{})
	if n != 0 {
		t.Errorf("users: got %d, want 0", n)
	}
}

func TestBuildRouter(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := validConfig()
	cfg.UploadDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(cfg.UploadDir, "hello.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}

	s, err := buildServices(nil, cfg, DBDeps{MongoDatabase: db}, testLogger())
	if err != nil {
		t.Fatalf("buildServices failed: %v", err)
	}
	t.Cleanup(func() {
		s.loginLimiter.Close()
		s.codeLimiter.Close()
	})
	h := buildRouter(s, cfg, db, testLogger())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/public/hello.txt", http.StatusOK},
		{"GET", "/nope", http.StatusNotFound},
		{"GET", "/api/auth/me", http.StatusUnauthorized},
		{"GET", "/api/rosters/" + strings.Repeat("a", 24), http.StatusUnauthorized},
		{"GET", "/api/organization-profiles/" + strings.Repeat("a", 24) + "/documents", http.StatusUnauthorized},
		{"GET", "/api/audit", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d (body: %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
