package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatIndex_RanksByCosine(t *testing.T) {
	idx := NewFlatIndex(2)
	require.NoError(t, idx.Upsert("east", []float32{1, 0}))
	require.NoError(t, idx.Upsert("north", []float32{0, 1}))
	require.NoError(t, idx.Upsert("northeast", []float32{1, 1}))

	matches, err := idx.Query([]float32{1, 0.1}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "east", matches[0].ID)
	assert.Equal(t, "northeast", matches[1].ID)
	assert.Equal(t, "north", matches[2].ID)
	assert.InDelta(t, 0.995, matches[0].Score, 0.001)
}

func TestFlatIndex_TopKAndTies(t *testing.T) {
	idx := NewFlatIndex(0)
	require.NoError(t, idx.Upsert("a", []float32{2, 0}))
	require.NoError(t, idx.Upsert("b", []float32{1, 0}))
	require.NoError(t, idx.Upsert("c", []float32{0, 1}))

	matches, err := idx.Query([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	// same direction, insertion order wins
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "b", matches[1].ID)

	all, err := idx.Query([]float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx := NewFlatIndex(3)
	assert.ErrorIs(t, idx.Upsert("x", []float32{1, 2}), ErrDimensionMismatch)

	require.NoError(t, idx.Upsert("x", []float32{1, 2, 3}))
	_, err := idx.Query([]float32{1}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFlatIndex_UpsertReplacesAndDelete(t *testing.T) {
	idx := NewFlatIndex(2)
	require.NoError(t, idx.Upsert("a", []float32{1, 0}))
	require.NoError(t, idx.Upsert("b", []float32{0, 1}))
	require.NoError(t, idx.Upsert("a", []float32{0, 1}))
	assert.Equal(t, 2, idx.Len())

	idx.Delete("a")
	idx.Delete("missing")
	assert.Equal(t, 1, idx.Len())

	matches, err := idx.Query([]float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].ID)
}

func TestFlatIndex_EmptyAndZeroVector(t *testing.T) {
	idx := NewFlatIndex(2)
	matches, err := idx.Query([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, idx.Upsert("zero", []float32{0, 0}))
	matches, err = idx.Query([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].Score)
}

func TestFlatIndex_CheckDimensions(t *testing.T) {
	open := NewFlatIndex(0)
	assert.NoError(t, open.CheckDimensions([][]float32{{1, 2}, {3, 4}}))
	assert.ErrorIs(t, open.CheckDimensions([][]float32{{1, 2}, {3}}), ErrDimensionMismatch)
	assert.ErrorIs(t, open.CheckDimensions([][]float32{{}}), ErrDimensionMismatch)
	assert.Zero(t, open.Len())

	fixed := NewFlatIndex(2)
	assert.ErrorIs(t, fixed.CheckDimensions([][]float32{{1, 2, 3}}), ErrDimensionMismatch)
}
