package catalog

import (
	"context"
	"errors"
)

// Movie is the canonical record for a title. MlID is the canonical id used as
// the join key across ratings, the latent-factor matrix and stored metadata;
// TmdbID (when non-zero) records the external id the movie was first resolved
// from. Title and genres may be back-filled later by enrichment.
type Movie struct {
	MlID   int64    `bson:"mlId" json:"mlId"`
	TmdbID int64    `bson:"tmdbId,omitempty" json:"tmdbId,omitempty"`
	Title  string   `bson:"title" json:"title"`
	Genres []string `bson:"genres" json:"genres"`
}

var (
	ErrMovieNotFound = errors.New("catalog: movie not found")
)

// Repository defines the persistence operations the catalog needs.
type Repository interface {
	ExistsByMlID(ctx context.Context, mlID int64) (bool, error)
	FindByMlID(ctx context.Context, mlID int64) (*Movie, error)
	FindByMlIDs(ctx context.Context, mlIDs []int64) ([]Movie, error)
	FindByTmdbID(ctx context.Context, tmdbID int64) (*Movie, error)
	// Upsert persists the movie keyed by mlId (ingestion and enrichment).
	Upsert(ctx context.Context, m *Movie) error
	// CreateIfAbsentByTmdbID inserts m unless a movie for the same tmdbId
	// already exists, and returns whichever record won. The external id is
	// the only key concurrent creators share, so keying the insert on it is
	// what makes duplicate resolutions converge on one mlId.
	CreateIfAbsentByTmdbID(ctx context.Context, m *Movie) (*Movie, error)
	MaxMlID(ctx context.Context) (int64, error)
	BulkUpsert(ctx context.Context, movies []Movie) (int64, error)
}
