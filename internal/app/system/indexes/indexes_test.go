package indexes_test

import (
	"testing"
	"time"

	"github.com/dalemusser/accredithub/internal/app/system/indexes"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	out := map[string]bson.M{}
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			out[name] = idx
		}
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesNamedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users":                 {"uniq_users_emailci", "idx_users_position_name", "idx_users_profile"},
		"organizations":         {"uniq_orgs_nameci"},
		"organization_profiles": {"uniq_profiles_acronymci_active", "idx_profiles_org_active", "idx_profiles_status_created"},
		"accreditations":        {"uniq_accreditations_profile_active"},
		"documents":             {"idx_documents_profile_pinned_created"},
		"rosters":               {"uniq_rosters_profile"},
		"roster_members":        {"idx_roster_members_roster_name"},
		"president_profiles":    {"idx_presidents_profile_created"},
		"financial_reports":     {"uniq_financial_reports_profile"},
		"receipts":              {"idx_receipts_report_date"},
		"proposed_action_plans": {"uniq_action_plans_profile_accreditation_active"},
		"proposals":             {"idx_proposals_plan_created", "idx_proposals_profile"},
		"proposal_conducts":     {"uniq_conducts_proposal", "idx_conducts_profile_created"},
		"email_verifications":   {"uniq_email_verifications_emailci", "ttl_email_verifications_expires"},
		"http_sessions":         {"ttl_http_sessions_expires"},
		"audit_events":          {"idx_audit_timestamp", "idx_audit_target_timestamp"},
		"orphaned_files":        {"uniq_orphaned_files_name", "idx_orphaned_files_next_attempt"},
	}
	for coll, names := range expected {
		got := indexNames(t, db, coll)
		for _, name := range names {
			if _, ok := got[name]; !ok {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_ActiveAccreditationIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	c := db.Collection("accreditations")
	profileID := primitive.NewObjectID()

	// inactive history may repeat
	for i := 0; i < 2; i++ {
		if _, err := c.InsertOne(ctx, bson.M{"organization_profile_id": profileID, "is_active": false}); err != nil {
			t.Fatalf("insert inactive %d: %v", i, err)
		}
	}
	if _, err := c.InsertOne(ctx, bson.M{"organization_profile_id": profileID, "is_active": true}); err != nil {
		t.Fatalf("insert active: %v", err)
	}
	_, err := c.InsertOne(ctx, bson.M{"organization_profile_id": profileID, "is_active": true})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("second active accreditation: got %v, want duplicate key error", err)
	}
}

func TestEnsureAll_TTLIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	for coll, name := range map[string]string{
		"email_verifications": "ttl_email_verifications_expires",
		"http_sessions":       "ttl_http_sessions_expires",
	} {
		idx, ok := indexNames(t, db, coll)[name]
		if !ok {
			t.Fatalf("missing %s on %s", name, coll)
		}
		if _, ok := idx["expireAfterSeconds"]; !ok {
			t.Errorf("%s on %s is not a TTL index", name, coll)
		}
	}
}

func TestEnsureAll_ReplacesIndexWithWrongOptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A pre-existing non-unique index on the same keys under another name.
	_, err := db.Collection("rosters").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "organization_profile_id", Value: 1}},
		Options: options.Index().SetName("legacy_profile"),
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, db, "rosters")
	if _, ok := got["legacy_profile"]; ok {
		t.Error("legacy index should have been replaced")
	}
	idx, ok := got["uniq_rosters_profile"]
	if !ok {
		t.Fatal("expected uniq_rosters_profile")
	}
	if idx["unique"] != true {
		t.Errorf("uniq_rosters_profile unique = %v", idx["unique"])
	}
}

func TestEnsureAll_CompletesQuickly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	start := time.Now()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Second {
		t.Errorf("EnsureAll took %v", elapsed)
	}
}
