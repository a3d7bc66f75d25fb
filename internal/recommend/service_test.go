package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"filmly/internal/catalog"
	"filmly/internal/factors"

	"github.com/stretchr/testify/require"
)

type fakeRatings struct {
	byUser map[int64][]UserRating
}

func (f *fakeRatings) RatingsByUser(_ context.Context, userID int64) ([]UserRating, error) {
	return f.byUser[userID], nil
}

type fakeMovies struct {
	movies map[int64]catalog.Movie
}

func (f *fakeMovies) ExistsByMlID(_ context.Context, mlID int64) (bool, error) {
	_, ok := f.movies[mlID]
	return ok, nil
}

func (f *fakeMovies) FindByMlID(_ context.Context, mlID int64) (*catalog.Movie, error) {
	if m, ok := f.movies[mlID]; ok {
		return &m, nil
	}
	return nil, catalog.ErrMovieNotFound
}

func (f *fakeMovies) FindByMlIDs(_ context.Context, mlIDs []int64) ([]catalog.Movie, error) {
	var out []catalog.Movie
	for _, id := range mlIDs {
		if m, ok := f.movies[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovies) FindByTmdbID(_ context.Context, tmdbID int64) (*catalog.Movie, error) {
	for _, m := range f.movies {
		if m.TmdbID == tmdbID {
			return &m, nil
		}
	}
	return nil, catalog.ErrMovieNotFound
}

func (f *fakeMovies) Upsert(_ context.Context, m *catalog.Movie) error {
	f.movies[m.MlID] = *m
	return nil
}

func (f *fakeMovies) CreateIfAbsentByTmdbID(_ context.Context, m *catalog.Movie) (*catalog.Movie, error) {
	f.movies[m.MlID] = *m
	return m, nil
}

func (f *fakeMovies) MaxMlID(context.Context) (int64, error) { return 0, nil }

func (f *fakeMovies) BulkUpsert(context.Context, []catalog.Movie) (int64, error) { return 0, nil }

func publishedStore(t *testing.T, payload string) *factors.Store {
	t.Helper()
	store := factors.NewStore(10)
	snap, err := factors.ParseSnapshot([]byte(payload))
	require.NoError(t, err)
	store.Publish(snap)
	return store
}

func newTestService(store *factors.Store, ratings map[int64][]UserRating) Service {
	return NewService(
		&fakeRatings{byUser: ratings},
		store,
		&fakeMovies{movies: map[int64]catalog.Movie{}},
		catalog.NewLinks(nil),
		nil,
		time.Minute,
	)
}

func TestRecommendModelNotReady(t *testing.T) {
	svc := newTestService(factors.NewStore(10), nil)

	_, err := svc.Recommend(context.Background(), 1)
	require.ErrorIs(t, err, ErrModelNotReady)
}

func TestRecommendNoRatingsReturnsEmpty(t *testing.T) {
	store := publishedStore(t, `{"Q":[[1,0]],"idToRow":{"1":0}}`)
	svc := newTestService(store, map[int64][]UserRating{})

	recs, err := svc.Recommend(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestRecommendAllRatedItemsUnknownReturnsEmpty(t *testing.T) {
	store := publishedStore(t, `{"Q":[[1,0]],"idToRow":{"1":0}}`)
	svc := newTestService(store, map[int64][]UserRating{
		7: {{MovieID: 999, Score: 9}, {MovieID: 998, Score: 2}},
	})

	recs, err := svc.Recommend(context.Background(), 7)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestRecommendRanksOrthogonalAboveAntiParallel(t *testing.T) {
	// A=[1,0], B=[0,1], C=[-1,0]; the user loved A (weight +5).
	store := publishedStore(t, `{"Q":[[1,0],[0,1],[-1,0]],"idToRow":{"1":0,"2":1,"3":2}}`)
	svc := newTestService(store, map[int64][]UserRating{
		7: {{MovieID: 1, Score: 10}},
	})

	recs, err := svc.Recommend(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	for _, r := range recs {
		require.NotEqual(t, int64(1), r.MlID, "rated item must never be recommended")
	}
	require.Equal(t, int64(2), recs[0].MlID, "orthogonal B ranks above anti-parallel C")
	require.Equal(t, int64(3), recs[1].MlID)
	require.Greater(t, recs[0].Score, recs[1].Score)
}

func TestRecommendScoresAreBoundedAndRounded(t *testing.T) {
	store := publishedStore(t, `{"Q":[[0.3,0.7],[0.5,0.5],[-0.2,0.9],[0.8,-0.1]],"idToRow":{"1":0,"2":1,"3":2,"4":3}}`)
	svc := newTestService(store, map[int64][]UserRating{
		7: {{MovieID: 1, Score: 9}, {MovieID: 2, Score: 3}},
	})

	recs, err := svc.Recommend(context.Background(), 7)
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	for _, r := range recs {
		require.GreaterOrEqual(t, r.Score, -1.0)
		require.LessOrEqual(t, r.Score, 1.0)
		require.Equal(t, math.Round(r.Score*100)/100, r.Score, "score must carry two decimals")
	}
}

func TestRecommendTieBreaksByAscendingMlID(t *testing.T) {
	// B=[0,1] and D=[0,-1] both score 0 against user vector [1,0].
	store := publishedStore(t, `{"Q":[[1,0],[0,1],[0,-1]],"idToRow":{"1":0,"9":1,"4":2}}`)
	svc := newTestService(store, map[int64][]UserRating{
		7: {{MovieID: 1, Score: 10}},
	})

	recs, err := svc.Recommend(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, int64(4), recs[0].MlID)
	require.Equal(t, int64(9), recs[1].MlID)
}

func TestRecommendCapsAtTwenty(t *testing.T) {
	const items = 30
	q := make([][]float64, items)
	idToRow := make(map[string]int, items)
	for i := 0; i < items; i++ {
		angle := float64(i) / items * math.Pi
		q[i] = []float64{math.Cos(angle), math.Sin(angle)}
		idToRow[fmt.Sprint(i+1)] = i
	}
	payload, err := json.Marshal(map[string]interface{}{"Q": q, "idToRow": idToRow})
	require.NoError(t, err)

	store := publishedStore(t, string(payload))
	svc := newTestService(store, map[int64][]UserRating{
		7: {{MovieID: 1, Score: 10}},
	})

	recs, err := svc.Recommend(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, recs, maxRecommendations)
}

func TestRecommendBelowNeutralPushesAway(t *testing.T) {
	// The user hated A; items aligned with A must sink, the anti-parallel
	// item must rise.
	store := publishedStore(t, `{"Q":[[1,0],[0.9,0.4359],[-1,0]],"idToRow":{"1":0,"2":1,"3":2}}`)
	svc := newTestService(store, map[int64][]UserRating{
		7: {{MovieID: 1, Score: 1}},
	})

	recs, err := svc.Recommend(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, int64(3), recs[0].MlID, "anti-parallel item ranks first for a hated seed")
}

func TestRecommendWithDetailsEnriches(t *testing.T) {
	store := publishedStore(t, `{"Q":[[1,0],[0,1]],"idToRow":{"1":0,"2":1}}`)
	movies := &fakeMovies{movies: map[int64]catalog.Movie{
		2: {MlID: 2, TmdbID: 8844, Title: "Jumanji"},
	}}
	svc := NewService(
		&fakeRatings{byUser: map[int64][]UserRating{7: {{MovieID: 1, Score: 10}}}},
		store,
		movies,
		catalog.NewLinks(nil),
		nil,
		time.Minute,
	)

	recs, err := svc.RecommendWithDetails(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "Jumanji", recs[0].Title)
	require.Equal(t, int64(8844), recs[0].TmdbID)
}

func TestSimilarMoviesNotReadyAndUnknown(t *testing.T) {
	svc := newTestService(factors.NewStore(10), nil)
	_, err := svc.SimilarMovies(context.Background(), 1, 5)
	require.ErrorIs(t, err, ErrModelNotReady)

	store := publishedStore(t, `{"Q":[[1,0],[0,1]],"idToRow":{"1":0,"2":1}}`)
	svc = newTestService(store, nil)
	sims, err := svc.SimilarMovies(context.Background(), 99, 5)
	require.NoError(t, err)
	require.Empty(t, sims)
}
