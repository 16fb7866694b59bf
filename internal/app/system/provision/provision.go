// Package provision implements insert-if-absent for the per-profile records
// (accreditations, rosters, financial reports, action plans) that are created
// on first access.
//
// Each target collection carries a unique (partial) index on its tenant key,
// so two concurrent first requests cannot both insert. The loser of the race
// sees a duplicate-key error and re-reads the winner's document.
package provision

import (
	"context"
	"fmt"

	"github.com/dalemusser/accredithub/internal/app/system/metrics"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindOrCreate decodes into out the document matching filter, inserting it
// first when none exists. The inserted document is the equality fields of
// filter plus defaults; defaults must not repeat keys of filter and must not
// set _id. It reports whether this call inserted the document.
func FindOrCreate(ctx context.Context, c *mongo.Collection, filter, defaults bson.M, out any) (bool, error) {
	newID := primitive.NewObjectID()
	onInsert := bson.M{"_id": newID}
	for k, v := range defaults {
		onInsert[k] = v
	}

	res := c.FindOneAndUpdate(ctx, filter,
		bson.M{"$setOnInsert": onInsert},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After))

	raw, err := res.Raw()
	if err != nil {
		if !wafflemongo.IsDup(err) {
			return false, fmt.Errorf("provision %s: %w", c.Name(), err)
		}
		// Lost the race to a concurrent insert; the winner's document is there now.
		if err := c.FindOne(ctx, filter).Decode(out); err != nil {
			return false, fmt.Errorf("provision %s reread: %w", c.Name(), err)
		}
		return false, nil
	}

	if err := bson.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("provision %s decode: %w", c.Name(), err)
	}

	created := false
	if id, ok := raw.Lookup("_id").ObjectIDOK(); ok && id == newID {
		created = true
		metrics.Provisioned.WithLabelValues(c.Name()).Inc()
	}
	return created, nil
}
