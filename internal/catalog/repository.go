package catalog

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) ExistsByMlID(ctx context.Context, mlID int64) (bool, error) {
	err := r.coll.FindOne(ctx, bson.M{"mlId": mlID}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, fmt.Errorf("checking movie %d: %w", mlID, err)
}

func (r *MongoRepository) FindByMlID(ctx context.Context, mlID int64) (*Movie, error) {
	var m Movie
	err := r.coll.FindOne(ctx, bson.M{"mlId": mlID}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("fetching movie %d: %w", mlID, err)
	}
	return &m, nil
}

func (r *MongoRepository) FindByMlIDs(ctx context.Context, mlIDs []int64) ([]Movie, error) {
	if len(mlIDs) == 0 {
		return []Movie{}, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{"mlId": bson.M{"$in": mlIDs}})
	if err != nil {
		return nil, fmt.Errorf("fetching movies: %w", err)
	}
	defer cursor.Close(ctx)

	var movies []Movie
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, fmt.Errorf("decoding movies: %w", err)
	}
	return movies, nil
}

func (r *MongoRepository) FindByTmdbID(ctx context.Context, tmdbID int64) (*Movie, error) {
	var m Movie
	err := r.coll.FindOne(ctx, bson.M{"tmdbId": tmdbID}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("fetching movie by tmdbId %d: %w", tmdbID, err)
	}
	return &m, nil
}

func (r *MongoRepository) Upsert(ctx context.Context, m *Movie) error {
	opts := options.UpdateOne().SetUpsert(true)
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"mlId": m.MlID},
		bson.M{"$set": m},
		opts,
	)
	if err != nil {
		return fmt.Errorf("upserting movie %d: %w", m.MlID, err)
	}
	return nil
}

func (r *MongoRepository) CreateIfAbsentByTmdbID(ctx context.Context, m *Movie) (*Movie, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var winner Movie
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"tmdbId": m.TmdbID},
		bson.M{"$setOnInsert": m},
		opts,
	).Decode(&winner)
	if err != nil {
		return nil, fmt.Errorf("creating movie for tmdbId %d: %w", m.TmdbID, err)
	}
	return &winner, nil
}

func (r *MongoRepository) MaxMlID(ctx context.Context) (int64, error) {
	opts := options.FindOne().SetSort(bson.M{"mlId": -1})
	var m Movie
	err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("finding max mlId: %w", err)
	}
	return m.MlID, nil
}

func (r *MongoRepository) BulkUpsert(ctx context.Context, movies []Movie) (int64, error) {
	if len(movies) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(movies))
	for i := range movies {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"mlId": movies[i].MlID}).
			SetUpdate(bson.M{"$set": movies[i]}).
			SetUpsert(true))
	}

	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("bulk upserting movies: %w", err)
	}
	return res.UpsertedCount + res.ModifiedCount + res.MatchedCount, nil
}
