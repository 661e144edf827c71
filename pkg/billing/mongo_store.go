package billing

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// BillingHistoryCollection is the default collection name for ledger entries.
const BillingHistoryCollection = "billing_history"

// MongoStore implements Store backed by a MongoDB collection keyed by
// transaction/checkout ID.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore returns a Store backed by the billing_history collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(BillingHistoryCollection)}
}

func (s *MongoStore) Get(ctx context.Context, checkoutID string) (*Entry, error) {
	var entry Entry
	err := s.col.FindOne(ctx, bson.M{"_id": checkoutID}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadEntry, err)
	}
	return &entry, nil
}

func (s *MongoStore) Save(ctx context.Context, entry *Entry) error {
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": entry.CheckoutID},
		entry,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Join(ErrFailedToSaveEntry, err)
	}
	return nil
}
