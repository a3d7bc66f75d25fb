package recommend

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UserRating is the slice of a rating the engine cares about.
type UserRating struct {
	MovieID int64   `bson:"movieId"`
	Score   float64 `bson:"score"`
}

// Repository reads the rating history the engine aggregates.
type Repository interface {
	RatingsByUser(ctx context.Context, userID int64) ([]UserRating, error)
}

type MongoRepository struct {
	ratingsColl *mongo.Collection
}

func NewMongoRepository(ratingsColl *mongo.Collection) *MongoRepository {
	return &MongoRepository{ratingsColl: ratingsColl}
}

func (r *MongoRepository) RatingsByUser(ctx context.Context, userID int64) ([]UserRating, error) {
	cursor, err := r.ratingsColl.Find(ctx, bson.M{"user": userID})
	if err != nil {
		return nil, fmt.Errorf("fetching ratings for user %d: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var ratings []UserRating
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("decoding ratings for user %d: %w", userID, err)
	}
	return ratings, nil
}
