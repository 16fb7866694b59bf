// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/accredithub/internal/app/system/authz"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// identity and tenancy
	ensure("users", usersSchema())
	ensure("organizations", orgsSchema())
	ensure("organization_profiles", profilesSchema())

	// accreditation case file
	ensure("accreditations", accreditationsSchema())
	ensure("documents", documentsSchema())
	ensure("rosters", rostersSchema())
	ensure("roster_members", rosterMembersSchema())
	ensure("president_profiles", presidentsSchema())
	ensure("financial_reports", financialReportsSchema())
	ensure("receipts", receiptsSchema())
	ensure("proposed_action_plans", actionPlansSchema())
	ensure("proposals", proposalsSchema())
	ensure("proposal_conducts", conductsSchema())

	// Collections created up front so transactions never have to create them.
	ensure("email_verifications", nil)
	ensure("http_sessions", nil)
	ensure("audit_events", nil)
	ensure("orphaned_files", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// Status vocabularies as stored by the models package.
const (
	reviewStatusPattern   = "^(Pending|Approved|Revision from .+)$"
	proposalStatusPattern = "^(Pending|Approved For Conduct|Revision Update from Student Leader|Revision from .+)$"
	conductStatusPattern  = "^(Pending|Conduct Approved|Revision Update from Student Leader|Revision from .+)$"
	nonBlank              = ".*\\S.*"
)

func str() bson.M { return bson.M{"bsonType": "string"} }
func nonBlankStr() bson.M { return bson.M{"bsonType": "string", "minLength": 1, "pattern": nonBlank} }
func oid() bson.M { return bson.M{"bsonType": "objectId"} }
func optOID() bson.M { return bson.M{"bsonType": bson.A{"objectId", "null"}} }
func oidArray() bson.M { return bson.M{"bsonType": "array", "items": oid()} }
func date() bson.M { return bson.M{"bsonType": "date"} }
func boolean() bson.M { return bson.M{"bsonType": "bool"} }
func integer() bson.M { return bson.M{"bsonType": bson.A{"int", "long"}} }
func status(p string) bson.M { return bson.M{"bsonType": "string", "pattern": p} }

func schema(required bson.A, props bson.M) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   required,
			"properties": props,
		},
	}
}

func usersSchema() bson.M {
	positions := bson.A{}
	for _, p := range authz.AllRoles {
		positions = append(positions, p)
	}
	return schema(bson.A{"name", "email", "email_ci", "position", "status"}, bson.M{
		"name":                    nonBlankStr(),
		"email":                   nonBlankStr(),
		"email_ci":                nonBlankStr(),
		"password_hash":           str(),
		"position":                bson.M{"enum": positions},
		"organization_profile_id": optOID(),
		"status":                  bson.M{"enum": bson.A{"active", "disabled"}},
	})
}

func orgsSchema() bson.M {
	return schema(bson.A{"name", "name_ci", "status"}, bson.M{
		"name":    nonBlankStr(),
		"name_ci": nonBlankStr(),
		"status":  bson.M{"enum": bson.A{"active", "inactive"}},
	})
}

func profilesSchema() bson.M {
	return schema(bson.A{"organization_id", "org_name", "org_acronym", "acronym_ci", "overall_status", "is_active"}, bson.M{
		"organization_id":      oid(),
		"org_name":             nonBlankStr(),
		"org_acronym":          nonBlankStr(),
		"acronym_ci":           nonBlankStr(),
		"org_class":            str(),
		"org_status":           str(),
		"overall_status":       status(reviewStatusPattern),
		"adviser_id":           optOID(),
		"org_president_id":     optOID(),
		"is_active":            boolean(),
		"is_allowed_for_reuse": boolean(),
	})
}

func accreditationsSchema() bson.M {
	return schema(bson.A{"organization_profile_id", "overall_status", "is_active"}, bson.M{
		"organization_profile_id":     oid(),
		"roster_id":                   optOID(),
		"president_profile_id":        optOID(),
		"financial_report_id":         optOID(),
		"joint_statement_id":          optOID(),
		"pledge_against_hazing_id":    optOID(),
		"constitution_and_by_laws_id": optOID(),
		"overall_status":              status(reviewStatusPattern),
		"is_active":                   boolean(),
	})
}

func documentsSchema() bson.M {
	return schema(bson.A{"organization_profile_id", "label", "file_name", "status"}, bson.M{
		"organization_profile_id": oid(),
		"label":                   nonBlankStr(),
		"file_name":               nonBlankStr(),
		"size":                    integer(),
		"status":                  status(reviewStatusPattern),
		"is_pinned":               boolean(),
		"logs":                    bson.M{"bsonType": "array"},
	})
}

func rostersSchema() bson.M {
	return schema(bson.A{"organization_profile_id", "members", "is_complete", "overall_status"}, bson.M{
		"organization_profile_id": oid(),
		"members":                 oidArray(),
		"is_complete":             boolean(),
		"overall_status":          status(reviewStatusPattern),
	})
}

func rosterMembersSchema() bson.M {
	return schema(bson.A{"roster_id", "name", "position"}, bson.M{
		"roster_id": oid(),
		"name":      nonBlankStr(),
		"email":     str(),
		"position":  nonBlankStr(),
	})
}

func presidentsSchema() bson.M {
	return schema(bson.A{"organization_profile_id", "name", "overall_status"}, bson.M{
		"organization_profile_id": oid(),
		"name":                    nonBlankStr(),
		"age":                     integer(),
		"class_schedule":          bson.M{"bsonType": bson.A{"array", "null"}},
		"talent_skills":           bson.M{"bsonType": bson.A{"array", "null"}},
		"overall_status":          status(reviewStatusPattern),
	})
}

func financialReportsSchema() bson.M {
	return schema(bson.A{"organization_profile_id", "initial_balance", "reimbursements", "disbursements"}, bson.M{
		"organization_profile_id": oid(),
		"initial_balance":         integer(),
		"reimbursements":          oidArray(),
		"disbursements":           oidArray(),
		"is_active":               boolean(),
	})
}

func receiptsSchema() bson.M {
	return schema(bson.A{"financial_report_id", "kind", "amount", "document_id", "date"}, bson.M{
		"financial_report_id": oid(),
		"kind":                bson.M{"enum": bson.A{"reimbursement", "disbursement"}},
		"amount":              bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
		"description":         str(),
		"document_id":         oid(),
		"date":                date(),
	})
}

func actionPlansSchema() bson.M {
	return schema(bson.A{"organization_profile_id", "accreditation_id", "proposals", "is_active"}, bson.M{
		"organization_profile_id": oid(),
		"accreditation_id":        oid(),
		"proposals":               oidArray(),
		"overall_status":          status(reviewStatusPattern),
		"is_active":               boolean(),
	})
}

func proposalsSchema() bson.M {
	return schema(bson.A{"action_plan_id", "organization_profile_id", "activity_title", "overall_status"}, bson.M{
		"action_plan_id":          oid(),
		"organization_profile_id": oid(),
		"activity_title":          nonBlankStr(),
		"aligned_sdg":             bson.M{"bsonType": bson.A{"array", "null"}},
		"budgetary_requirements":  integer(),
		"document_ids":            oidArray(),
		"overall_status":          status(proposalStatusPattern),
	})
}

func conductsSchema() bson.M {
	return schema(bson.A{"proposal_id", "organization_profile_id", "proposed_individual_action_plan", "overall_status"}, bson.M{
		"proposal_id":                     oid(),
		"organization_profile_id":         oid(),
		"proposed_individual_action_plan": bson.M{"bsonType": "object"},
		"document_ids":                    oidArray(),
		"overall_status":                  status(conductStatusPattern),
	})
}
