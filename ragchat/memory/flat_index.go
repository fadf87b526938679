package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Match is one index hit; higher Score is more similar.
type Match struct {
	ID    string
	Score float64
}

type entry struct {
	id   string
	vec  []float64
	norm float64
}

// FlatIndex is a brute-force in-memory cosine index. It is safe for concurrent use.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
	pos       map[string]int
}

// NewFlatIndex creates an index for vectors of the given dimension.
// A dimension of zero is fixed by the first upserted vector.
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{dimension: dimension, pos: make(map[string]int)}
}

// Upsert adds or replaces the vector for id.
func (f *FlatIndex) Upsert(id string, vector []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dimension == 0 {
		f.dimension = len(vector)
	}
	if len(vector) != f.dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dimension, len(vector))
	}

	vec := toFloat64(vector)
	e := entry{id: id, vec: vec, norm: floats.Norm(vec, 2)}
	if i, ok := f.pos[id]; ok {
		f.entries[i] = e
		return nil
	}
	f.pos[id] = len(f.entries)
	f.entries = append(f.entries, e)
	return nil
}

// CheckDimensions reports whether every vector fits the index without changing it.
// An index of unfixed dimension accepts vectors that agree with each other.
func (f *FlatIndex) CheckDimensions(vectors [][]float32) error {
	f.mu.RLock()
	dim := f.dimension
	f.mu.RUnlock()

	for _, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dim, len(v))
		}
	}
	return nil
}

// Delete removes id from the index. Unknown ids are ignored.
func (f *FlatIndex) Delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.pos[id]
	if !ok {
		return
	}
	f.entries = append(f.entries[:i], f.entries[i+1:]...)
	delete(f.pos, id)
	for j := i; j < len(f.entries); j++ {
		f.pos[f.entries[j].id] = j
	}
}

// Len returns the number of indexed vectors.
func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Query returns up to k ids ordered by descending cosine similarity.
// Equal scores keep insertion order.
func (f *FlatIndex) Query(query []float32, k int) ([]Match, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dimension, len(query))
	}

	q := toFloat64(query)
	qNorm := floats.Norm(q, 2)

	matches := make([]Match, len(f.entries))
	for i, e := range f.entries {
		matches[i] = Match{ID: e.id, Score: cosine(q, qNorm, e.vec, e.norm)}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Load fills the index from every embedded node in the store.
func (f *FlatIndex) Load(ctx context.Context, store *NodeStore) error {
	return store.ForEachEmbedding(ctx, func(id string, vec []float32) error {
		return f.Upsert(id, vec)
	})
}

func cosine(a []float64, aNorm float64, b []float64, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	return floats.Dot(a, b) / (aNorm * bNorm)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
