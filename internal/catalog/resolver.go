package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filmly/internal/sequence"
	"filmly/pkg/logger"

	"go.uber.org/zap"
)

const defaultLookupTimeout = 5 * time.Second

// Resolver normalizes an incoming TMDb or MovieLens id to a canonical mlId.
// Resolution order, each step short-circuiting on success:
//
//  1. ids already known as mlIds are trusted as-is,
//  2. the static links table maps TMDb -> MovieLens,
//  3. a movie previously created for this tmdbId reuses its mlId,
//  4. otherwise a fresh mlId is allocated, metadata is fetched best-effort
//     and the movie is inserted if absent, keyed by the external id.
//
// Step 4's insert keying is what makes concurrent resolutions of the same
// unknown external id converge on a single record.
type Resolver struct {
	repo          Repository
	links         *Links
	seq           *sequence.Allocator
	meta          MetadataProvider
	lookupTimeout time.Duration
}

func NewResolver(repo Repository, links *Links, seq *sequence.Allocator, meta MetadataProvider, lookupTimeout time.Duration) *Resolver {
	if lookupTimeout <= 0 {
		lookupTimeout = defaultLookupTimeout
	}
	return &Resolver{
		repo:          repo,
		links:         links,
		seq:           seq,
		meta:          meta,
		lookupTimeout: lookupTimeout,
	}
}

// Resolve returns the canonical mlId for an external id, creating the movie
// record when it has never been seen. Metadata failures degrade to a
// placeholder title; storage failures propagate.
func (r *Resolver) Resolve(ctx context.Context, externalID int64) (int64, error) {
	// 1) Already a known mlId: keep it.
	known, err := r.repo.ExistsByMlID(ctx, externalID)
	if err != nil {
		return 0, fmt.Errorf("catalog: resolve %d: %w", externalID, err)
	}
	if known {
		return externalID, nil
	}

	// 2) TMDb -> MovieLens via links.csv.
	if mlID, ok := r.links.ToCanonical(externalID); ok {
		return mlID, nil
	}

	// 3) A movie already created for this tmdbId reuses its mlId.
	existing, err := r.repo.FindByTmdbID(ctx, externalID)
	if err == nil {
		return existing.MlID, nil
	}
	if !errors.Is(err, ErrMovieNotFound) {
		return 0, fmt.Errorf("catalog: resolve %d: %w", externalID, err)
	}

	// 4) Brand new TMDb-only title: allocate an mlId and create the movie.
	mlID, err := r.seq.Next(ctx, sequence.MovieIDKey)
	if err != nil {
		return 0, fmt.Errorf("catalog: resolve %d: %w", externalID, err)
	}

	title := fmt.Sprintf("TMDb #%d", externalID)
	genres := []string{}

	lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	info, lookupErr := r.meta.Lookup(lookupCtx, externalID)
	cancel()
	if lookupErr == nil && info != nil {
		if info.Title != "" {
			title = info.Title
		}
		if info.Genres != nil {
			genres = info.Genres
		}
	} else {
		logger.Warn("tmdb metadata fetch failed, creating minimal movie",
			zap.Int64("tmdbId", externalID), zap.Error(lookupErr))
	}

	movie := &Movie{
		MlID:   mlID,
		TmdbID: externalID,
		Title:  title,
		Genres: genres,
	}
	winner, err := r.repo.CreateIfAbsentByTmdbID(ctx, movie)
	if err != nil {
		return 0, fmt.Errorf("catalog: resolve %d: %w", externalID, err)
	}
	if winner.MlID != mlID {
		// Lost the race to a concurrent resolver; its record stands and the
		// allocated mlId stays unused.
		return winner.MlID, nil
	}

	logger.Info("created movie",
		zap.Int64("mlId", mlID), zap.Int64("tmdbId", externalID), zap.String("title", title))
	return mlID, nil
}
