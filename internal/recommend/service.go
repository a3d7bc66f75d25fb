package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"filmly/internal/catalog"
	"filmly/internal/factors"
	"filmly/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrModelNotReady is returned while no latent factor snapshot has been
// published. Callers surface it as a retryable condition, distinct from an
// empty recommendation list.
var ErrModelNotReady = errors.New("recommend: latent vectors not loaded yet")

const (
	maxRecommendations = 20
	neutralScore       = 5.0
	defaultSimilarK    = 10
)

// Recommendation is one ranked entry, scored by cosine similarity between
// the synthesized user vector and the item embedding.
type Recommendation struct {
	MlID   int64   `json:"mlId"`
	TmdbID int64   `json:"tmdbId,omitempty"`
	Title  string  `json:"title,omitempty"`
	Score  float64 `json:"score"`
}

// SimilarMovie is one entry of a "more like this" answer.
type SimilarMovie struct {
	MlID   int64   `json:"mlId"`
	TmdbID int64   `json:"tmdbId,omitempty"`
	Title  string  `json:"title,omitempty"`
	Sim    float64 `json:"sim"`
}

// Service is the recommendation logic exposed to the handlers.
type Service interface {
	// Recommend returns up to 20 ranked unseen items for a user,
	// canonical ids plus scores only.
	Recommend(ctx context.Context, userID int64) ([]Recommendation, error)
	// RecommendWithDetails additionally resolves titles and TMDb ids.
	RecommendWithDetails(ctx context.Context, userID int64) ([]Recommendation, error)
	// SimilarMovies answers "more like this" from the similarity index.
	SimilarMovies(ctx context.Context, mlID int64, k int) ([]SimilarMovie, error)
}

type service struct {
	repo     Repository
	store    *factors.Store
	movies   catalog.Repository
	links    *catalog.Links
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewService builds the engine. rdb may be nil, which disables the
// similar-movies response cache.
func NewService(repo Repository, store *factors.Store, movies catalog.Repository, links *catalog.Links, rdb *redis.Client, cacheTTL time.Duration) Service {
	return &service{
		repo:     repo,
		store:    store,
		movies:   movies,
		links:    links,
		rdb:      rdb,
		cacheTTL: cacheTTL,
	}
}

func (s *service) Recommend(ctx context.Context, userID int64) ([]Recommendation, error) {
	if !s.store.IsReady() {
		return nil, ErrModelNotReady
	}
	snap := s.store.Current()

	ratings, err := s.repo.RatingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return []Recommendation{}, nil
	}

	// Build the user vector: each known rated item contributes its embedding
	// weighted by (score - 5), so below-neutral ratings push away from the
	// item's direction. Items the model has no row for are skipped.
	rated := make(map[int64]bool, len(ratings))
	userVec := make([]float64, snap.Dims())
	contributions := 0
	for _, r := range ratings {
		rated[r.MovieID] = true
		vec, ok := snap.Vector(r.MovieID)
		if !ok {
			continue
		}
		weight := r.Score - neutralScore
		for i := range vec {
			userVec[i] += vec[i] * weight
		}
		contributions++
	}
	if contributions == 0 {
		return []Recommendation{}, nil
	}
	normalize(userVec)

	// Score every unrated row. Rows are unit-norm, so the dot product is
	// cosine similarity.
	preds := make([]Recommendation, 0, snap.Len())
	for j := 0; j < snap.Len(); j++ {
		mlID := snap.RowID(j)
		if rated[mlID] {
			continue
		}
		preds = append(preds, Recommendation{
			MlID:  mlID,
			Score: dotProduct(userVec, snap.Row(j)),
		})
	}

	// Descending by score; equal scores order by ascending mlId so the
	// ranking is deterministic.
	sort.Slice(preds, func(a, b int) bool {
		if preds[a].Score != preds[b].Score {
			return preds[a].Score > preds[b].Score
		}
		return preds[a].MlID < preds[b].MlID
	})

	if len(preds) > maxRecommendations {
		preds = preds[:maxRecommendations]
	}
	for i := range preds {
		preds[i].Score = math.Round(preds[i].Score*100) / 100
	}
	return preds, nil
}

func (s *service) RecommendWithDetails(ctx context.Context, userID int64) ([]Recommendation, error) {
	recs, err := s.Recommend(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return recs, nil
	}

	mlIDs := make([]int64, len(recs))
	for i, r := range recs {
		mlIDs[i] = r.MlID
	}
	movies, err := s.movies.FindByMlIDs(ctx, mlIDs)
	if err != nil {
		return nil, err
	}
	byMl := make(map[int64]catalog.Movie, len(movies))
	for _, m := range movies {
		byMl[m.MlID] = m
	}

	for i := range recs {
		if m, ok := byMl[recs[i].MlID]; ok {
			recs[i].Title = m.Title
			recs[i].TmdbID = m.TmdbID
		}
		if recs[i].Title == "" {
			recs[i].Title = "Unknown title"
		}
		if recs[i].TmdbID == 0 {
			if tmdb, ok := s.links.ToTmdb(recs[i].MlID); ok {
				recs[i].TmdbID = tmdb
			}
		}
	}
	return recs, nil
}

func (s *service) SimilarMovies(ctx context.Context, mlID int64, k int) ([]SimilarMovie, error) {
	if !s.store.IsReady() {
		return nil, ErrModelNotReady
	}
	if k <= 0 {
		k = defaultSimilarK
	}

	// The cache key carries the snapshot generation, so entries written
	// against a replaced model are simply never read again.
	cacheKey := fmt.Sprintf("sims:g%d:%d:%d", s.store.Generation(), mlID, k)
	if s.rdb != nil {
		if data, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []SimilarMovie
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	neighbors := s.store.TopKNeighbors(mlID, k)
	if len(neighbors) == 0 {
		return []SimilarMovie{}, nil
	}

	mlIDs := make([]int64, len(neighbors))
	for i, n := range neighbors {
		mlIDs[i] = n.MlID
	}
	movies, err := s.movies.FindByMlIDs(ctx, mlIDs)
	if err != nil {
		return nil, err
	}
	byMl := make(map[int64]catalog.Movie, len(movies))
	for _, m := range movies {
		byMl[m.MlID] = m
	}

	out := make([]SimilarMovie, 0, len(neighbors))
	for _, n := range neighbors {
		sm := SimilarMovie{MlID: n.MlID, Sim: math.Round(n.Sim*100) / 100}
		if m, ok := byMl[n.MlID]; ok {
			sm.Title = m.Title
			sm.TmdbID = m.TmdbID
		}
		if sm.TmdbID == 0 {
			if tmdb, ok := s.links.ToTmdb(n.MlID); ok {
				sm.TmdbID = tmdb
			}
		}
		out = append(out, sm)
	}

	if s.rdb != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				logger.Warn("caching similar movies failed", zap.Error(err))
			}
		}
	}
	return out, nil
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

func dotProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
