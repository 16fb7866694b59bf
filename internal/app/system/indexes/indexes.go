// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The unique partial indexes here are what make get-or-create safe: two
concurrent upserts for the same organization profile cannot both insert.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"organizations", ensureOrganizations},
		{"organization_profiles", ensureOrganizationProfiles},
		{"accreditations", ensureAccreditations},
		{"documents", ensureDocuments},
		{"rosters", ensureRosters},
		{"roster_members", ensureRosterMembers},
		{"president_profiles", ensurePresidentProfiles},
		{"financial_reports", ensureFinancialReports},
		{"receipts", ensureReceipts},
		{"proposed_action_plans", ensureActionPlans},
		{"proposals", ensureProposals},
		{"proposal_conducts", ensureConducts},
		{"email_verifications", ensureEmailVerifications},
		{"http_sessions", ensureSessions},
		{"audit_events", ensureAuditEvents},
		{"orphaned_files", ensureOrphanedFiles},
	}

	var problems []string
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name               string   `bson:"name"`
	Key                bson.D   `bson:"key"`
	Unique             *bool    `bson:"unique,omitempty"`
	PartialFilter      bson.Raw `bson:"partialFilterExpression,omitempty"`
	ExpireAfterSeconds *int32   `bson:"expireAfterSeconds,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

func int32Val(p *int32) int32 {
	if p == nil {
		return -1
	}
	return *p
}

// optionsMatch compares the options we manage: unique, partial filter, TTL.
func optionsMatch(m mongo.IndexModel, ex existingIndex) bool {
	var unique *bool
	var ttl *int32
	var partial any
	if m.Options != nil {
		unique = m.Options.Unique
		ttl = m.Options.ExpireAfterSeconds
		partial = m.Options.PartialFilterExpression
	}
	if boolVal(unique) != boolVal(ex.Unique) || int32Val(ttl) != int32Val(ex.ExpireAfterSeconds) {
		return false
	}
	if partial == nil {
		return len(ex.PartialFilter) == 0
	}
	want, err := bson.Marshal(partial)
	if err != nil || len(ex.PartialFilter) == 0 {
		return false
	}
	return bson.Raw(want).String() == ex.PartialFilter.String()
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // key signature -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		existing = map[string]existingIndex{}
	}

	for _, m := range models {
		var desiredName string
		if m.Options != nil && m.Options.Name != nil {
			desiredName = *m.Options.Name
		}
		unique := m.Options != nil && boolVal(m.Options.Unique)
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique))

		if ex, ok := existing[desiredSig]; ok {
			if optionsMatch(m, ex) && (desiredName == "" || ex.Name == desiredName) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("took", time.Since(start).String()))
				continue
			}

			// Name or options differ: drop and recreate.
			zap.L().Info("replacing index",
				zap.String("collection", coll.Name()),
				zap.String("from", ex.Name),
				zap.String("to", desiredName))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()),
				zap.Error(err))
			if isDuplicateKeyErr(err) && unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), desiredName, desiredSig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// activeOnly scopes a unique index to the current cycle; inactive history
// rows may repeat the key.
func activeOnly() bson.D {
	return bson.D{{Key: "is_active", Value: true}}
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Email is the login id and must be unique (case-folded).
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
		// Adviser pickers list users by position.
		{
			Keys:    bson.D{{Key: "position", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_users_position_name"),
		},
		{
			Keys:    bson.D{{Key: "organization_profile_id", Value: 1}},
			Options: options.Index().SetName("idx_users_profile"),
		},
	})
}

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("organizations"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_nameci"),
		},
	})
}

func ensureOrganizationProfiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("organization_profiles"), []mongo.IndexModel{
		// One active profile per acronym.
		{
			Keys: bson.D{{Key: "acronym_ci", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(activeOnly()).
				SetName("uniq_profiles_acronymci_active"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index().SetName("idx_profiles_org_active"),
		},
		// Reviewer queue: filter by status, newest first.
		{
			Keys:    bson.D{{Key: "overall_status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_profiles_status_created"),
		},
	})
}

func ensureAccreditations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("accreditations"), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "organization_profile_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(activeOnly()).
				SetName("uniq_accreditations_profile_active"),
		},
	})
}

func ensureDocuments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("documents"), []mongo.IndexModel{
		// Profile document list: pinned first, newest first.
		{
			Keys: bson.D{
				{Key: "organization_profile_id", Value: 1},
				{Key: "is_pinned", Value: -1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_documents_profile_pinned_created"),
		},
	})
}

func ensureRosters(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("rosters"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_profile_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_rosters_profile"),
		},
	})
}

func ensureRosterMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("roster_members"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "roster_id", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_roster_members_roster_name"),
		},
	})
}

func ensurePresidentProfiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("president_profiles"), []mongo.IndexModel{
		// History view: all presidents of a profile, newest first.
		{
			Keys:    bson.D{{Key: "organization_profile_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_presidents_profile_created"),
		},
	})
}

func ensureFinancialReports(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("financial_reports"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_profile_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_financial_reports_profile"),
		},
	})
}

func ensureReceipts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("receipts"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "financial_report_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("idx_receipts_report_date"),
		},
	})
}

func ensureActionPlans(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("proposed_action_plans"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "organization_profile_id", Value: 1},
				{Key: "accreditation_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(activeOnly()).
				SetName("uniq_action_plans_profile_accreditation_active"),
		},
	})
}

func ensureProposals(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("proposals"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "action_plan_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_proposals_plan_created"),
		},
		{
			Keys:    bson.D{{Key: "organization_profile_id", Value: 1}},
			Options: options.Index().SetName("idx_proposals_profile"),
		},
	})
}

func ensureConducts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("proposal_conducts"), []mongo.IndexModel{
		// At most one conduct per proposal.
		{
			Keys:    bson.D{{Key: "proposal_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_conducts_proposal"),
		},
		{
			Keys:    bson.D{{Key: "organization_profile_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_conducts_profile_created"),
		},
	})
}

func ensureEmailVerifications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("email_verifications"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email_verifications_emailci"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_email_verifications_expires"),
		},
	})
}

func ensureSessions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("http_sessions"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_http_sessions_expires"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "organization_profile_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_profile_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "target_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_target_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}

func ensureOrphanedFiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("orphaned_files"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "file_name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orphaned_files_name"),
		},
		{
			Keys:    bson.D{{Key: "next_attempt_at", Value: 1}},
			Options: options.Index().SetName("idx_orphaned_files_next_attempt"),
		},
	})
}
