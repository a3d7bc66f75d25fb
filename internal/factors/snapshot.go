package factors

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrMalformedModel marks structural validation failures on a model artifact.
// A failed load never disturbs the currently published snapshot.
var ErrMalformedModel = errors.New("factors: malformed model artifact")

// artifact is the wire shape of cf_factors.json. The two field names and the
// row-count/mapping-size equality are the whole compatibility contract.
type artifact struct {
	Q       [][]float64    `json:"Q"`
	IDToRow map[string]int `json:"idToRow"`
}

// Snapshot is one immutable, fully-loaded instance of the item embedding
// matrix plus its id mapping. Rows are L2-normalized at construction, so dot
// products between rows are cosine similarities.
type Snapshot struct {
	q       [][]float64
	idToRow map[int64]int
	rowToID []int64
	dims    int
}

// ParseSnapshot decodes and validates a cf_factors.json payload.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedModel, err)
	}
	if art.Q == nil || art.IDToRow == nil {
		return nil, fmt.Errorf("%w: expected keys Q and idToRow", ErrMalformedModel)
	}
	if len(art.Q) != len(art.IDToRow) {
		return nil, fmt.Errorf("%w: %d rows but %d mapped ids", ErrMalformedModel, len(art.Q), len(art.IDToRow))
	}

	dims := 0
	if len(art.Q) > 0 {
		dims = len(art.Q[0])
	}
	for i, row := range art.Q {
		if len(row) != dims {
			return nil, fmt.Errorf("%w: row %d has %d dims, expected %d", ErrMalformedModel, i, len(row), dims)
		}
	}

	idToRow := make(map[int64]int, len(art.IDToRow))
	rowToID := make([]int64, len(art.Q))
	seen := make([]bool, len(art.Q))
	for idStr, row := range art.IDToRow {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: non-numeric id %q", ErrMalformedModel, idStr)
		}
		if row < 0 || row >= len(art.Q) {
			return nil, fmt.Errorf("%w: id %d maps to row %d, out of range", ErrMalformedModel, id, row)
		}
		if seen[row] {
			return nil, fmt.Errorf("%w: row %d mapped twice", ErrMalformedModel, row)
		}
		seen[row] = true
		idToRow[id] = row
		rowToID[row] = id
	}

	q := make([][]float64, len(art.Q))
	for i, row := range art.Q {
		q[i] = normalizeRow(row)
	}

	return &Snapshot{
		q:       q,
		idToRow: idToRow,
		rowToID: rowToID,
		dims:    dims,
	}, nil
}

// normalizeRow scales to unit L2 norm; zero-norm rows stay all-zero.
func normalizeRow(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Len reports the number of items in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.q)
}

// Dims reports the latent dimensionality.
func (s *Snapshot) Dims() int {
	return s.dims
}

// Vector returns the normalized row for a canonical id, or false when the
// model has no opinion on it.
func (s *Snapshot) Vector(mlID int64) ([]float64, bool) {
	row, ok := s.idToRow[mlID]
	if !ok {
		return nil, false
	}
	return s.q[row], true
}

// Row returns the vector at a given row index.
func (s *Snapshot) Row(i int) []float64 {
	return s.q[i]
}

// RowID returns the canonical id mapped to a row index.
func (s *Snapshot) RowID(i int) int64 {
	return s.rowToID[i]
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
