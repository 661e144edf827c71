package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/quotakit/pkg/quota"
)

// QuotaArchiveCollection is the default collection name for archived records.
const QuotaArchiveCollection = "quota_archive"

// MongoStore implements Store backed by a MongoDB collection with one
// document per (user_id, seq) pair.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore returns a Store backed by the quota_archive collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(QuotaArchiveCollection)}
}

// EnsureIndexes creates the (user_id, seq) unique index the store relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Append(ctx context.Context, record quota.Record, archivedAt time.Time) (Entry, error) {
	seq, err := s.nextSeq(ctx, record.UserID)
	if err != nil {
		return Entry{}, errors.Join(ErrFailedToAppend, err)
	}

	entry := Entry{
		UserID:     record.UserID,
		Seq:        seq,
		Quota:      record,
		ArchivedAt: archivedAt,
	}

	if _, err := s.col.InsertOne(ctx, entry); err != nil {
		return Entry{}, errors.Join(ErrFailedToAppend, err)
	}
	return entry, nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	cur, err := s.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Join(ErrFailedToList, err)
	}
	defer cur.Close(ctx)

	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Join(ErrFailedToList, err)
	}
	return out, nil
}

func (s *MongoStore) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, errors.Join(ErrFailedToList, err)
	}
	return n, nil
}

func (s *MongoStore) nextSeq(ctx context.Context, userID uuid.UUID) (int64, error) {
	var last Entry
	err := s.col.FindOne(ctx,
		bson.M{"user_id": userID},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}),
	).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return last.Seq + 1, nil
}
