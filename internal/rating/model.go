package rating

import (
	"context"
	"errors"
)

// Rating is one user's score for one canonical movie. Exactly one rating
// exists per (user, movieId) pair; a resubmission supersedes the previous
// one (delete-then-insert, not merge).
type Rating struct {
	User    int64   `bson:"user" json:"user"`
	MovieID int64   `bson:"movieId" json:"movieId"`
	Score   float64 `bson:"score" json:"score"`
}

var (
	ErrNoRatings    = errors.New("rating: no ratings provided")
	ErrInvalidScore = errors.New("rating: score must be between 1 and 10")
)

// Repository defines the persistence operations for ratings.
type Repository interface {
	FindByUser(ctx context.Context, userID int64) ([]Rating, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	DeleteByUserAndMovies(ctx context.Context, userID int64, mlIDs []int64) error
	InsertMany(ctx context.Context, ratings []Rating) error
}
