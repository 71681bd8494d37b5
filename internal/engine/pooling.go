package engine

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrBadShape       = errors.New("unexpected hidden state shape")
	ErrMaskMismatch   = errors.New("attention mask length does not match sequence length")
	ErrNoValidTokens  = errors.New("no valid tokens in attention mask")
	ErrZeroNorm       = errors.New("cannot normalize zero vector")
	ErrNonFiniteValue = errors.New("embedding contains non-finite values")
)

// checkHidden validates a [1, seq, hidden] float tensor and returns seq and hidden.
func checkHidden(h Tensor) (int, int, error) {
	if len(h.Shape) != 3 {
		return 0, 0, fmt.Errorf("%w: rank %d, want 3", ErrBadShape, len(h.Shape))
	}
	if h.Shape[0] != 1 {
		return 0, 0, fmt.Errorf("%w: batch %d, want 1", ErrBadShape, h.Shape[0])
	}
	seq, dim := int(h.Shape[1]), int(h.Shape[2])
	if seq < 0 || dim <= 0 || len(h.Float32) != seq*dim {
		return 0, 0, fmt.Errorf("%w: %v with %d values", ErrBadShape, h.Shape, len(h.Float32))
	}
	return seq, dim, nil
}

// MeanPool averages the hidden vectors of positions whose mask value is 1.
func MeanPool(hidden Tensor, mask []int64) ([]float32, error) {
	seq, dim, err := checkHidden(hidden)
	if err != nil {
		return nil, err
	}
	if len(mask) != seq {
		return nil, fmt.Errorf("%w: %d vs %d", ErrMaskMismatch, len(mask), seq)
	}
	sum := make([]float64, dim)
	count := 0
	for s := 0; s < seq; s++ {
		if mask[s] != 1 {
			continue
		}
		row := hidden.Float32[s*dim : (s+1)*dim]
		for j, v := range row {
			sum[j] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil, ErrNoValidTokens
	}
	out := make([]float32, dim)
	for j := range sum {
		out[j] = float32(sum[j] / float64(count))
	}
	return out, nil
}

// CLSPool returns the hidden vector of the first position.
func CLSPool(hidden Tensor, mask []int64) ([]float32, error) {
	seq, dim, err := checkHidden(hidden)
	if err != nil {
		return nil, err
	}
	if len(mask) != seq {
		return nil, fmt.Errorf("%w: %d vs %d", ErrMaskMismatch, len(mask), seq)
	}
	if seq == 0 || mask[0] != 1 {
		return nil, ErrNoValidTokens
	}
	out := make([]float32, dim)
	copy(out, hidden.Float32[:dim])
	return out, nil
}

// L2Normalize returns v scaled to unit Euclidean length. The norm is
// accumulated in float64.
func L2Normalize(v []float32) ([]float32, error) {
	var ss float64
	for _, x := range v {
		ss += float64(x) * float64(x)
	}
	norm := math.Sqrt(ss)
	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, ErrNonFiniteValue
	}
	if norm == 0 {
		return nil, ErrZeroNorm
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}
