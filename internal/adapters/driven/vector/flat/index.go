package flat

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index errors.
var (
	// ErrDimensionMismatch indicates a vector of the wrong length.
	ErrDimensionMismatch = errors.New("flat: dimension mismatch")

	// ErrEmptyIndex indicates an index was built from no vectors.
	ErrEmptyIndex = errors.New("flat: no vectors")
)

// Index is an in-memory exact inner-product index.
// It is immutable once built and safe for concurrent searches.
type Index struct {
	dimension int
	vectors   [][]float32
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}
	return &Index{dimension: dimension}, nil
}

// Add normalises v and appends it at the next position.
func (i *Index) Add(v []float32) error {
	if len(v) != i.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), i.dimension)
	}
	i.vectors = append(i.vectors, normalise(v))
	return nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int {
	return len(i.vectors)
}

// Dim returns the vector dimension.
func (i *Index) Dim() int {
	return i.dimension
}

// Search returns up to k positions ordered by descending score.
// Equal scores keep insertion order.
func (i *Index) Search(query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != i.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), i.dimension)
	}
	if k <= 0 || len(i.vectors) == 0 {
		return []driven.VectorHit{}, nil
	}

	q := normalise(query)
	hits := make([]driven.VectorHit, len(i.vectors))
	for pos, v := range i.vectors {
		hits[pos] = driven.VectorHit{Position: pos, Score: dot(q, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalise returns a unit-length copy of v. Zero vectors stay zero.
func normalise(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	scale := 1 / math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) * scale)
	}
	return out
}
