package rating

import (
	"context"
	"fmt"

	"filmly/internal/catalog"
	"filmly/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// resolveConcurrency bounds how many TMDb lookups a single submission can
// have in flight.
const resolveConcurrency = 8

// Resolver normalizes an external id to a canonical mlId. Satisfied by
// *catalog.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, externalID int64) (int64, error)
}

// Input is one submitted rating, carrying a TMDb or MovieLens id.
type Input struct {
	MovieID int64   `json:"movieId" binding:"required"`
	Score   float64 `json:"score" binding:"required"`
}

// HistoryEntry is one rating in a user's history, translated back to the
// TMDb id the UI expects.
type HistoryEntry struct {
	MovieID int64   `json:"movieId"` // TMDb id when known, 0 otherwise
	Score   float64 `json:"score"`
	MlID    int64   `json:"mlId"`
	Title   string  `json:"title,omitempty"`
}

type Service interface {
	Submit(ctx context.Context, userID int64, inputs []Input) error
	History(ctx context.Context, userID int64) ([]HistoryEntry, error)
	Count(ctx context.Context, userID int64) (int64, error)
}

type service struct {
	repo     Repository
	resolver Resolver
	movies   catalog.Repository
	links    *catalog.Links
}

func NewService(repo Repository, resolver Resolver, movies catalog.Repository, links *catalog.Links) Service {
	return &service{
		repo:     repo,
		resolver: resolver,
		movies:   movies,
		links:    links,
	}
}

// Submit normalizes every incoming id to an mlId (resolutions run
// concurrently; converging on one record under races is the resolver's
// contract) and persists with delete-then-insert so a resubmitted pair
// supersedes the stored rating.
func (s *service) Submit(ctx context.Context, userID int64, inputs []Input) error {
	if len(inputs) == 0 {
		return ErrNoRatings
	}
	for _, in := range inputs {
		if in.Score < 1 || in.Score > 10 {
			return fmt.Errorf("%w: got %v for movie %d", ErrInvalidScore, in.Score, in.MovieID)
		}
	}

	// Each goroutine writes only its own slot.
	mapped := make([]Rating, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			mlID, err := s.resolver.Resolve(gctx, in.MovieID)
			if err != nil {
				return err
			}
			logger.Debug("resolved incoming id",
				zap.Int64("raw", in.MovieID), zap.Int64("mlId", mlID))
			mapped[i] = Rating{User: userID, MovieID: mlID, Score: in.Score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Two inputs may normalize to the same mlId; the later one wins, same as
	// a resubmission would.
	byMl := make(map[int64]int, len(mapped))
	deduped := mapped[:0]
	for _, r := range mapped {
		if idx, ok := byMl[r.MovieID]; ok {
			deduped[idx] = r
			continue
		}
		byMl[r.MovieID] = len(deduped)
		deduped = append(deduped, r)
	}

	mlIDs := make([]int64, len(deduped))
	for i, r := range deduped {
		mlIDs[i] = r.MovieID
	}

	if err := s.repo.DeleteByUserAndMovies(ctx, userID, mlIDs); err != nil {
		return err
	}
	return s.repo.InsertMany(ctx, deduped)
}

func (s *service) History(ctx context.Context, userID int64) ([]HistoryEntry, error) {
	ratings, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return []HistoryEntry{}, nil
	}

	mlIDs := make([]int64, 0, len(ratings))
	seen := make(map[int64]bool, len(ratings))
	for _, r := range ratings {
		if !seen[r.MovieID] {
			seen[r.MovieID] = true
			mlIDs = append(mlIDs, r.MovieID)
		}
	}

	movies, err := s.movies.FindByMlIDs(ctx, mlIDs)
	if err != nil {
		return nil, err
	}
	byMl := make(map[int64]catalog.Movie, len(movies))
	for _, m := range movies {
		byMl[m.MlID] = m
	}

	entries := make([]HistoryEntry, 0, len(ratings))
	for _, r := range ratings {
		entry := HistoryEntry{MlID: r.MovieID, Score: r.Score}
		if tmdb, ok := s.links.ToTmdb(r.MovieID); ok {
			entry.MovieID = tmdb
		}
		if m, ok := byMl[r.MovieID]; ok {
			entry.Title = m.Title
			if entry.MovieID == 0 {
				entry.MovieID = m.TmdbID
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *service) Count(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountByUser(ctx, userID)
}
