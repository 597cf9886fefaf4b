package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := ensureClaimsIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure claims indexes: %w", err)
	}
	return nil
}

func ensureClaimsIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColClaims)
	models := []mongo.IndexModel{
		newIndex("user_id", 1, "claims_user_id", false),
		newIndex("status", 1, "claims_status", false),
		newIndex("scored", 1, "claims_scored", false),
		newIndex("created_at", -1, "claims_created_at_desc", false),
		// Compound index backing the frequency rule lookup
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "policy_number", Value: 1},
			{Key: "created_at", Value: -1},
		}, Options: options.Index().SetName("claims_user_policy_created")},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func newIndex(field string, asc int32, name string, unique bool) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts = opts.SetUnique(true)
	}
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: asc}},
		Options: opts,
	}
}
