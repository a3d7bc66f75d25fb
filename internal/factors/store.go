package factors

import (
	"sync/atomic"

	"filmly/pkg/logger"

	"go.uber.org/zap"
)

// state bundles a snapshot with the similarity index derived from it, so a
// publish swaps both in one step and readers never observe a snapshot paired
// with a stale index.
type state struct {
	snap *Snapshot
	sims *SimilarityIndex
	gen  uint64
}

// Store owns the currently published snapshot. It is the sole writer; the
// snapshot is replaced, never mutated, so the read path needs no locks.
type Store struct {
	current     atomic.Pointer[state]
	similarTopK int
}

func NewStore(similarTopK int) *Store {
	if similarTopK <= 0 {
		similarTopK = defaultSimilarTopK
	}
	return &Store{similarTopK: similarTopK}
}

// Publish atomically swaps in a new snapshot. In-flight readers of the old
// snapshot finish against the old data. The per-item similarity index is
// rebuilt here, which is what keeps it from outliving its snapshot.
func (s *Store) Publish(snap *Snapshot) {
	var gen uint64 = 1
	if prev := s.current.Load(); prev != nil {
		gen = prev.gen + 1
	}

	sims := buildSimilarityIndex(snap, s.similarTopK)
	s.current.Store(&state{snap: snap, sims: sims, gen: gen})

	logger.Info("published latent factor snapshot",
		zap.Int("items", snap.Len()), zap.Int("dims", snap.Dims()), zap.Uint64("generation", gen))
}

// IsReady reports whether any snapshot has ever been published.
func (s *Store) IsReady() bool {
	return s.current.Load() != nil
}

// Current returns the active snapshot, or nil before the first publish.
func (s *Store) Current() *Snapshot {
	st := s.current.Load()
	if st == nil {
		return nil
	}
	return st.snap
}

// Generation identifies the active snapshot; it increments on every publish
// and is 0 before the first one. Cache keys derived from it go stale on
// reload by construction.
func (s *Store) Generation() uint64 {
	st := s.current.Load()
	if st == nil {
		return 0
	}
	return st.gen
}

// Vector returns the normalized embedding for a canonical id from the active
// snapshot.
func (s *Store) Vector(mlID int64) ([]float64, bool) {
	st := s.current.Load()
	if st == nil {
		return nil, false
	}
	return st.snap.Vector(mlID)
}

// TopKNeighbors returns the k most similar items to mlID, descending by
// similarity, never including mlID itself. Queries within the precomputed
// index width are served from the index; larger ones scan the snapshot.
func (s *Store) TopKNeighbors(mlID int64, k int) []Neighbor {
	st := s.current.Load()
	if st == nil || k <= 0 {
		return nil
	}
	if cached, ok := st.sims.neighbors(mlID); ok && k <= st.sims.topK {
		if k > len(cached) {
			k = len(cached)
		}
		out := make([]Neighbor, k)
		copy(out, cached[:k])
		return out
	}
	return computeNeighbors(st.snap, mlID, k)
}
