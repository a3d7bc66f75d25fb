package rating

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) FindByUser(ctx context.Context, userID int64) ([]Rating, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"user": userID})
	if err != nil {
		return nil, fmt.Errorf("fetching ratings for user %d: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var ratings []Rating
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("decoding ratings for user %d: %w", userID, err)
	}
	return ratings, nil
}

func (r *MongoRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"user": userID})
	if err != nil {
		return 0, fmt.Errorf("counting ratings for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *MongoRepository) DeleteByUserAndMovies(ctx context.Context, userID int64, mlIDs []int64) error {
	if len(mlIDs) == 0 {
		return nil
	}
	_, err := r.coll.DeleteMany(ctx, bson.M{
		"user":    userID,
		"movieId": bson.M{"$in": mlIDs},
	})
	if err != nil {
		return fmt.Errorf("deleting ratings for user %d: %w", userID, err)
	}
	return nil
}

func (r *MongoRepository) InsertMany(ctx context.Context, ratings []Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	docs := make([]interface{}, len(ratings))
	for i := range ratings {
		docs[i] = ratings[i]
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("inserting ratings: %w", err)
	}
	return nil
}
