package catalog

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// TiersCollection is the default collection name for persisted tiers.
const TiersCollection = "tiers"

// mongoSource loads the tier catalog from a MongoDB collection keyed by slug.
type mongoSource struct {
	col *mongo.Collection
}

// NewMongoSource returns a Source backed by the tiers collection of db.
func NewMongoSource(db *mongo.Database) Source {
	return &mongoSource{col: db.Collection(TiersCollection)}
}

func (s *mongoSource) Load(ctx context.Context) (map[string]Tier, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadTiers, err)
	}
	defer cur.Close(ctx)

	tiers := make(map[string]Tier)
	for cur.Next(ctx) {
		var tier Tier
		if err := cur.Decode(&tier); err != nil {
			return nil, errors.Join(ErrFailedToLoadTiers, err)
		}
		tiers[tier.Slug] = tier
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Join(ErrFailedToLoadTiers, err)
	}

	return tiers, nil
}

// SeedMongo upserts the given tiers into the tiers collection after
// validating each one. Existing tiers with the same slug are replaced;
// this is the only supported mutation path for the catalog.
func SeedMongo(ctx context.Context, db *mongo.Database, tiers []Tier) error {
	col := db.Collection(TiersCollection)
	now := time.Now().UTC()

	for _, tier := range tiers {
		if err := ValidateTier(tier); err != nil {
			return err
		}

		if tier.CreatedAt.IsZero() {
			tier.CreatedAt = now
		}
		tier.UpdatedAt = now

		if _, err := col.ReplaceOne(ctx,
			bson.M{"_id": tier.Slug},
			tier,
			options.Replace().SetUpsert(true),
		); err != nil {
			return err
		}
	}

	return nil
}
