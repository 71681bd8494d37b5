package types

import "time"

// Model describes a configured embedding model and its load status.
type Model struct {
	// Stable identifier used in requests.
	// example: all-MiniLM-L6-v2
	ID string `json:"id" example:"all-MiniLM-L6-v2"`
	// Human-friendly name.
	// example: All MiniLM L6 v2
	Name string `json:"name" example:"All MiniLM L6 v2"`
	// example: Sentence-transformers MiniLM, 384 dimensions
	Description string `json:"description,omitempty"`
	// example: 1.0.0
	Version string `json:"version,omitempty" example:"1.0.0"`
	// Runtime kind: onnx, hash or llama.
	// example: onnx
	Kind string `json:"kind" example:"onnx"`
	// example: 384
	Dimension int `json:"embedding_dimension" example:"384"`
	// example: 256
	MaxSequenceLength int `json:"max_sequence_length,omitempty" example:"256"`
	// example: mean
	Pooling string `json:"pooling_mode,omitempty" example:"mean"`
	// example: cpu
	Device string `json:"device" example:"cpu"`
	// example: false
	UsesGPU bool `json:"uses_gpu" example:"false"`
	// example: true
	Loaded bool `json:"loaded" example:"true"`
	// Load time; omitted when not loaded.
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}
