package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanPool_IgnoresMaskedPositions(t *testing.T) {
	h := Tensor{Shape: []int64{1, 3, 2}, Float32: []float32{
		1, 2,
		3, 4,
		100, 100, // padding
	}}
	got, err := MeanPool(h, []int64{1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, got)
}

func TestMeanPool_Errors(t *testing.T) {
	ok := Tensor{Shape: []int64{1, 2, 2}, Float32: []float32{1, 2, 3, 4}}

	_, err := MeanPool(ok, []int64{0, 0})
	assert.ErrorIs(t, err, ErrNoValidTokens)

	_, err = MeanPool(ok, []int64{1})
	assert.ErrorIs(t, err, ErrMaskMismatch)

	_, err = MeanPool(Tensor{Shape: []int64{2, 2}, Float32: []float32{1, 2, 3, 4}}, []int64{1, 1})
	assert.ErrorIs(t, err, ErrBadShape)

	_, err = MeanPool(Tensor{Shape: []int64{2, 1, 2}, Float32: []float32{1, 2, 3, 4}}, []int64{1})
	assert.ErrorIs(t, err, ErrBadShape)

	_, err = MeanPool(Tensor{Shape: []int64{1, 2, 3}, Float32: []float32{1, 2}}, []int64{1, 1})
	assert.ErrorIs(t, err, ErrBadShape)
}

func TestCLSPool(t *testing.T) {
	h := Tensor{Shape: []int64{1, 2, 2}, Float32: []float32{5, 6, 7, 8}}
	got, err := CLSPool(h, []int64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 6}, got)

	_, err = CLSPool(h, []int64{0, 1})
	assert.ErrorIs(t, err, ErrNoValidTokens)
}

func TestL2Normalize(t *testing.T) {
	got, err := L2Normalize([]float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, got[0], 1e-7)
	assert.InDelta(t, 0.8, got[1], 1e-7)

	_, err = L2Normalize([]float32{0, 0, 0})
	assert.ErrorIs(t, err, ErrZeroNorm)

	_, err = L2Normalize([]float32{float32(math.NaN()), 1})
	assert.ErrorIs(t, err, ErrNonFiniteValue)

	_, err = L2Normalize([]float32{float32(math.Inf(1))})
	assert.ErrorIs(t, err, ErrNonFiniteValue)
}

func TestL2Normalize_TinyAndHugeValuesStayUnitLength(t *testing.T) {
	for _, v := range [][]float32{
		{1e-30, 2e-30, 3e-30},
		{3e38, 3e38},
	} {
		got, err := L2Normalize(v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, norm(got), 1e-5)
	}
}

func norm(v []float32) float64 {
	var ss float64
	for _, x := range v {
		ss += float64(x) * float64(x)
	}
	return math.Sqrt(ss)
}
