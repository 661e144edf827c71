package quota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// QuotaHistoryCollection is the default collection name for live quota records.
const QuotaHistoryCollection = "quota_history"

// MongoStore implements Store backed by a MongoDB collection keyed by user ID.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore returns a Store backed by the quota_history collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(QuotaHistoryCollection)}
}

func (s *MongoStore) Get(ctx context.Context, userID uuid.UUID) (*Record, error) {
	var rec Record
	err := s.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadRecord, err)
	}
	return &rec, nil
}

func (s *MongoStore) Save(ctx context.Context, record *Record) error {
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": record.UserID},
		record,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Join(ErrFailedToSaveRecord, err)
	}
	return nil
}

func (s *MongoStore) ListExpiredCancellations(ctx context.Context, now time.Time, limit int) ([]Record, error) {
	filter := bson.M{
		"canceled":                true,
		"subscription_period_end": bson.M{"$lt": now},
	}

	opts := options.Find()
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadRecord, err)
	}
	defer cur.Close(ctx)

	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Join(ErrFailedToLoadRecord, err)
	}
	return out, nil
}
