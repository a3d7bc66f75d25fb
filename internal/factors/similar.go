package factors

import (
	"container/heap"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

const defaultSimilarTopK = 50

// Neighbor is one entry of an item's nearest-neighbor list.
type Neighbor struct {
	MlID int64   `json:"movieId"`
	Sim  float64 `json:"sim"`
}

// SimilarityIndex holds the precomputed top-K neighbor list per item for one
// snapshot. It is built inside Store.Publish and discarded with its snapshot,
// so it can never serve entries from a replaced matrix.
type SimilarityIndex struct {
	topK    int
	entries map[int64][]Neighbor
}

func (idx *SimilarityIndex) neighbors(mlID int64) ([]Neighbor, bool) {
	n, ok := idx.entries[mlID]
	return n, ok
}

// buildSimilarityIndex computes the top-K neighbor lists for every row,
// fanning rows out across the CPUs. Rows are independent, so the only shared
// write is each goroutine's own slot range.
func buildSimilarityIndex(snap *Snapshot, topK int) *SimilarityIndex {
	n := snap.Len()
	lists := make([][]Neighbor, n)

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			lists[i] = topKForRow(snap, i, topK)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	entries := make(map[int64][]Neighbor, n)
	for i := 0; i < n; i++ {
		entries[snap.RowID(i)] = lists[i]
	}
	return &SimilarityIndex{topK: topK, entries: entries}
}

// topKForRow selects the k nearest rows to row i with a min-heap, then
// reverses the drain so the result is descending by similarity.
func topKForRow(snap *Snapshot, i, k int) []Neighbor {
	v := snap.Row(i)
	h := &neighborHeap{}
	heap.Init(h)

	for j := 0; j < snap.Len(); j++ {
		if j == i {
			continue
		}
		sim := dot(v, snap.Row(j))
		if h.Len() < k {
			heap.Push(h, Neighbor{MlID: snap.RowID(j), Sim: sim})
		} else if sim > (*h)[0].Sim {
			heap.Pop(h)
			heap.Push(h, Neighbor{MlID: snap.RowID(j), Sim: sim})
		}
	}

	out := make([]Neighbor, h.Len())
	for idx := len(out) - 1; idx >= 0; idx-- {
		out[idx] = heap.Pop(h).(Neighbor)
	}
	return out
}

// computeNeighbors is the uncached path: dot products against every other
// row of the snapshot, descending, excluding the query item, truncated to k.
func computeNeighbors(snap *Snapshot, mlID int64, k int) []Neighbor {
	v, ok := snap.Vector(mlID)
	if !ok {
		return nil
	}

	sims := make([]Neighbor, 0, snap.Len())
	for j := 0; j < snap.Len(); j++ {
		id := snap.RowID(j)
		if id == mlID {
			continue
		}
		sims = append(sims, Neighbor{MlID: id, Sim: dot(v, snap.Row(j))})
	}

	sort.Slice(sims, func(a, b int) bool {
		if sims[a].Sim != sims[b].Sim {
			return sims[a].Sim > sims[b].Sim
		}
		return sims[a].MlID < sims[b].MlID
	})

	if len(sims) > k {
		sims = sims[:k]
	}
	return sims
}

// neighborHeap is a min-heap by similarity.
type neighborHeap []Neighbor

func (h neighborHeap) Len() int            { return len(h) }
func (h neighborHeap) Less(i, j int) bool  { return h[i].Sim < h[j].Sim }
func (h neighborHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x interface{}) { *h = append(*h, x.(Neighbor)) }
func (h *neighborHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
