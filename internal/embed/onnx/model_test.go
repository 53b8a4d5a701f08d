package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadBatchAlignsToLongestSequence(t *testing.T) {
	batch := []encoded{
		{ids: []int64{101, 7592, 102}, mask: []int64{1, 1, 1}, typeIDs: []int64{0, 0, 0}},
		{ids: []int64{101, 102}, mask: []int64{1, 1}, typeIDs: []int64{0, 0}},
	}

	ids, mask, typeIDs, maxLen := padBatch(batch)

	assert.Equal(t, 3, maxLen)
	assert.Equal(t, []int64{101, 7592, 102, 101, 102, 0}, ids)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 0}, mask)
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0}, typeIDs)
}

func TestPadBatchSingleSequenceNeedsNoPadding(t *testing.T) {
	batch := []encoded{
		{ids: []int64{101, 102}, mask: []int64{1, 1}, typeIDs: []int64{0, 0}},
	}

	ids, mask, _, maxLen := padBatch(batch)
	assert.Equal(t, 2, maxLen)
	assert.Equal(t, []int64{101, 102}, ids)
	assert.Equal(t, []int64{1, 1}, mask)
}

func TestClsPoolExtractsFirstTokenPerSequence(t *testing.T) {
	// 2 sequences, seqLen 3, dim 2: CLS vectors are the first dim floats
	// of each sequence's block.
	hidden := []float32{
		// sequence 0
		1, 2, 0, 0, 0, 0,
		// sequence 1
		3, 4, 0, 0, 0, 0,
	}

	vecs, err := clsPool(hidden, 2, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, vecs)
}

func TestClsPoolRejectsShortTensor(t *testing.T) {
	_, err := clsPool(make([]float32, 4), 2, 3, 2)
	require.Error(t, err)
}

func TestClsPoolCopiesRatherThanAliases(t *testing.T) {
	hidden := []float32{9, 9}
	vecs, err := clsPool(hidden, 1, 1, 2)
	require.NoError(t, err)

	hidden[0] = 0
	assert.Equal(t, float32(9), vecs[0][0], "pooled vectors must not alias the backing tensor")
}
