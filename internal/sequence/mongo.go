package sequence

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type counterDoc struct {
	ID   string `bson:"_id"`
	Next int64  `bson:"next"`
}

// MongoCounterStore keeps one counter document per domain key and leans on
// MongoDB's atomic findOneAndUpdate so increments are linearizable without
// application-level locking.
type MongoCounterStore struct {
	coll *mongo.Collection
}

func NewMongoCounterStore(coll *mongo.Collection) *MongoCounterStore {
	return &MongoCounterStore{coll: coll}
}

func (s *MongoCounterStore) Exists(ctx context.Context, key string) (bool, error) {
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

func (s *MongoCounterStore) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"next": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	return doc.Next, nil
}

func (s *MongoCounterStore) InitIfAbsent(ctx context.Context, key string, seed int64) error {
	opts := options.UpdateOne().SetUpsert(true)
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$setOnInsert": bson.M{"next": seed}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("init counter: %w", err)
	}
	return nil
}
