package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/accredithub/internal/app/system/txn"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Run must commit exactly one write whether the test server is a replica set
// or a standalone mongod, where the first attempt fails and fn runs again
// without a transaction.
func TestRun_WritesOnceOnAnyDeployment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	coll := db.Collection("ledger")

	err := txn.Run(ctx, db.Client(), zap.NewNop(), func(ctx context.Context) error {
		if _, err := coll.InsertOne(ctx, bson.M{"memo": "opening balance"}); err != nil {
			return err
		}
		_, err := coll.UpdateOne(ctx, bson.M{"memo": "opening balance"}, bson.M{"$set": bson.M{"posted": true}})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	n, err := coll.CountDocuments(ctx, bson.M{"posted": true})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("posted entries = %d, want 1", n)
	}
}

func TestRun_ReturnsFnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	want := errors.New("report not found")
	err := txn.Run(ctx, db.Client(), zap.NewNop(), func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

// A failed fn leaves nothing behind: a transaction aborts its writes, and
// callers undo theirs when running without one.
func TestRun_FailedFnLeavesNoWrite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	coll := db.Collection("ledger")

	failure := errors.New("apply failed")
	err := txn.Run(ctx, db.Client(), zap.NewNop(), func(ctx context.Context) error {
		res, err := coll.InsertOne(ctx, bson.M{"memo": "orphan"})
		if err != nil {
			return err
		}
		_, _ = coll.DeleteOne(ctx, bson.M{"_id": res.InsertedID})
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("err = %v, want %v", err, failure)
	}

	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("documents = %d, want 0", n)
	}
}
