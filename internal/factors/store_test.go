package factors

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustSnapshot(t *testing.T, payload string) *Snapshot {
	t.Helper()
	snap, err := ParseSnapshot([]byte(payload))
	require.NoError(t, err)
	return snap
}

func TestParseSnapshotNormalizesRows(t *testing.T) {
	snap := mustSnapshot(t, `{"Q":[[3,4],[0,0]],"idToRow":{"1":0,"2":1}}`)

	v, ok := snap.Vector(1)
	require.True(t, ok)
	require.InDelta(t, 0.6, v[0], 1e-9)
	require.InDelta(t, 0.8, v[1], 1e-9)

	// zero-norm rows stay all-zero, no division
	z, ok := snap.Vector(2)
	require.True(t, ok)
	require.Equal(t, []float64{0, 0}, z)

	_, ok = snap.Vector(3)
	require.False(t, ok)
}

func TestParseSnapshotRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{`,
		"missing Q":         `{"idToRow":{"1":0}}`,
		"missing idToRow":   `{"Q":[[1,0]]}`,
		"size mismatch":     `{"Q":[[1,0],[0,1]],"idToRow":{"1":0}}`,
		"ragged rows":       `{"Q":[[1,0],[0,1,0]],"idToRow":{"1":0,"2":1}}`,
		"row out of range":  `{"Q":[[1,0]],"idToRow":{"1":5}}`,
		"row mapped twice":  `{"Q":[[1,0],[0,1]],"idToRow":{"1":0,"2":0}}`,
		"non-numeric id":    `{"Q":[[1,0]],"idToRow":{"abc":0}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(payload))
			require.ErrorIs(t, err, ErrMalformedModel)
		})
	}
}

func TestPublishIsAtomicAndFailedLoadLeavesStateUntouched(t *testing.T) {
	store := NewStore(10)
	require.False(t, store.IsReady())
	require.Equal(t, uint64(0), store.Generation())

	store.Publish(mustSnapshot(t, `{"Q":[[1,0],[0,1]],"idToRow":{"10":0,"20":1}}`))
	require.True(t, store.IsReady())
	require.Equal(t, uint64(1), store.Generation())

	// a malformed artifact must not disturb the published snapshot
	_, err := ParseSnapshot([]byte(`{"Q":[[1,0],[0,1]],"idToRow":{"10":0}}`))
	require.ErrorIs(t, err, ErrMalformedModel)
	require.True(t, store.IsReady())
	require.Equal(t, uint64(1), store.Generation())

	v, ok := store.Vector(10)
	require.True(t, ok)
	require.Equal(t, []float64{1, 0}, v)

	// a successful publish replaces everything at once
	store.Publish(mustSnapshot(t, `{"Q":[[0,1]],"idToRow":{"30":0}}`))
	require.Equal(t, uint64(2), store.Generation())
	_, ok = store.Vector(10)
	require.False(t, ok)
}

func TestTopKNeighborsExcludesSelfAndIsNonIncreasing(t *testing.T) {
	// four items on the unit circle
	payload := map[string]interface{}{
		"Q": [][]float64{
			{1, 0},
			{0.9, 0.4359},
			{0, 1},
			{-1, 0},
		},
		"idToRow": map[string]int{"1": 0, "2": 1, "3": 2, "4": 3},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	store := NewStore(10)
	store.Publish(mustSnapshot(t, string(data)))

	for _, id := range []int64{1, 2, 3, 4} {
		neighbors := store.TopKNeighbors(id, 3)
		require.Len(t, neighbors, 3)
		for i, n := range neighbors {
			require.NotEqual(t, id, n.MlID, "query item must not be its own neighbor")
			if i > 0 {
				require.LessOrEqual(t, n.Sim, neighbors[i-1].Sim, "similarities must be non-increasing")
			}
		}
	}

	// item 2 is closest to item 1
	neighbors := store.TopKNeighbors(1, 1)
	require.Len(t, neighbors, 1)
	require.Equal(t, int64(2), neighbors[0].MlID)
}

func TestTopKNeighborsBeyondIndexWidthFallsBackToScan(t *testing.T) {
	store := NewStore(2) // index keeps only 2 neighbors per item
	store.Publish(mustSnapshot(t, `{"Q":[[1,0],[0.9,0.4359],[0,1],[-1,0]],"idToRow":{"1":0,"2":1,"3":2,"4":3}}`))

	neighbors := store.TopKNeighbors(1, 3)
	require.Len(t, neighbors, 3)
	require.Equal(t, int64(2), neighbors[0].MlID)
	require.Equal(t, int64(4), neighbors[2].MlID)
}

func TestTopKNeighborsUnknownIDAndNotReady(t *testing.T) {
	store := NewStore(10)
	require.Nil(t, store.TopKNeighbors(1, 5))

	store.Publish(mustSnapshot(t, `{"Q":[[1,0]],"idToRow":{"1":0}}`))
	require.Nil(t, store.TopKNeighbors(99, 5))
}

func TestNormalizeRowUnitNorm(t *testing.T) {
	v := normalizeRow([]float64{2, 2, 2, 2})
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	require.InDelta(t, 1.0, math.Sqrt(sum), 1e-9)
}
