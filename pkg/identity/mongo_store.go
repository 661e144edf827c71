package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UsersCollection is the default collection name for user records.
const UsersCollection = "users"

// MongoStore implements UserStore backed by a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore returns a UserStore backed by the users collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(UsersCollection)}
}

func (s *MongoStore) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) GetByExternalCustomerID(ctx context.Context, customerID string) (*User, error) {
	return s.findOne(ctx, bson.M{"external_customer_id": customerID})
}

func (s *MongoStore) SetTier(ctx context.Context, id uuid.UUID, tierID string) error {
	return s.setField(ctx, id, "tier_id", tierID)
}

func (s *MongoStore) SetExternalCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return s.setField(ctx, id, "external_customer_id", customerID)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	err := s.col.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadUser, err)
	}
	return &user, nil
}

func (s *MongoStore) setField(ctx context.Context, id uuid.UUID, field string, value string) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return errors.Join(ErrFailedToSaveUser, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
