package engine

import (
	"context"
	"fmt"
)

// HashRuntime is a Runtime that maps each token id to a fixed pseudo-random
// vector. It needs no model file, which makes it useful for tests and for
// running the service without native libraries. Identical token sequences
// always produce identical hidden states.
type HashRuntime struct {
	Dim  int
	Seed uint64
}

// NewHashRuntime returns a HashRuntime producing dim-wide hidden states.
func NewHashRuntime(dim int, seed uint64) (*HashRuntime, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hash runtime: dimension must be positive, got %d", dim)
	}
	return &HashRuntime{Dim: dim, Seed: seed}, nil
}

// Run implements Runtime.
func (h *HashRuntime) Run(ctx context.Context, inputs map[string]Tensor) (map[string]Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, ok := inputs[InputIDs]
	if !ok {
		return nil, fmt.Errorf("hash runtime: missing input %q", InputIDs)
	}
	n := len(ids.Int64)
	out := make([]float32, n*h.Dim)
	for s, id := range ids.Int64 {
		state := h.Seed ^ (uint64(id) * 0x9E3779B97F4A7C15)
		row := out[s*h.Dim : (s+1)*h.Dim]
		for j := range row {
			state = splitmix64(state)
			// top 24 bits mapped onto [-1, 1)
			row[j] = float32(state>>40)/float32(1<<23) - 1
		}
	}
	return map[string]Tensor{
		HiddenState: {Shape: []int64{1, int64(n), int64(h.Dim)}, Float32: out},
	}, nil
}

// Close implements Runtime.
func (h *HashRuntime) Close() error { return nil }

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
