package svaop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeBounded(t *testing.T) {
	lo, hi, inf, err := Range(1, "3")
	require.NoError(t, err)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 3, hi)
	assert.False(t, inf)
}

func TestRangeUnbounded(t *testing.T) {
	lo, _, inf, err := Range(2, "$")
	require.NoError(t, err)
	assert.Equal(t, 2, lo)
	assert.True(t, inf)
}

func TestRangeDegenerate(t *testing.T) {
	lo, hi, inf, err := Range(0, "0")
	require.NoError(t, err)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 0, hi)
	assert.False(t, inf)
}

func TestRangeErrors(t *testing.T) {
	_, _, _, err := Range(-1, "3")
	assert.Error(t, err, "negative low bound")

	_, _, _, err = Range(2, "1")
	assert.Error(t, err, "high below low")

	_, _, _, err = Range(0, "banana")
	assert.Error(t, err, "malformed high bound")
}

func TestIsLeaf(t *testing.T) {
	for _, k := range []Kind{KindRose, KindFell, KindStable, KindPast} {
		assert.True(t, IsLeaf(k), k.String())
	}
	assert.False(t, IsLeaf(KindSeqConcat))
	assert.False(t, IsLeaf(KindThroughout))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "seq_concat", KindSeqConcat.String())
	assert.Equal(t, "non_overlapped_implication", KindNonOverlappedImplication.String())
	assert.Equal(t, "Kind(-1)", Kind(-1).String())
}
