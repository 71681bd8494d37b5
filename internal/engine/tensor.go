package engine

import "context"

// Tensor names exchanged with a Runtime.
const (
	InputIDs      = "input_ids"
	AttentionMask = "attention_mask"
	TokenTypeIDs  = "token_type_ids"
	HiddenState   = "last_hidden_state"
)

// Tensor is a dense row-major tensor. Exactly one of Int64 and Float32 holds data.
type Tensor struct {
	Shape   []int64
	Int64   []int64
	Float32 []float32
}

// Runtime executes a model graph.
type Runtime interface {
	Run(ctx context.Context, inputs map[string]Tensor) (map[string]Tensor, error)
	Close() error
}
