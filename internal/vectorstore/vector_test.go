package vectorstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/vectorstore"
)

func TestCosineSimilarity(t *testing.T) {
	sim, err := vectorstore.CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-6)

	sim, err = vectorstore.CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-6)

	sim, err = vectorstore.CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-6)

	// Zero-magnitude vectors are treated as unrelated, not as an error.
	sim, err = vectorstore.CosineSimilarity([]float32{0, 0}, []float32{1, 2})
	require.NoError(t, err)
	assert.Zero(t, sim)

	_, err = vectorstore.CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorContains(t, err, "same dimension")

	_, err = vectorstore.CosineSimilarity(nil, []float32{1})
	assert.ErrorContains(t, err, "empty")
}
