package model

import (
	"fmt"

	"github.com/rs/zerolog"

	"embedd/internal/errs"
)

// Kinds understood by NewFactory.
const (
	KindONNX  = "onnx"
	KindHash  = "hash"
	KindLlama = "llama"
)

// Factory constructs an uninitialized Model for a descriptor.
type Factory func(d Descriptor) (Model, error)

// Constructor builds one kind of model.
type Constructor func(d Descriptor, log zerolog.Logger) (Model, error)

// NewFactory returns the default factory. extra constructors are consulted
// before the built-in kinds, which lets tests and embedders add kinds.
func NewFactory(log zerolog.Logger, extra map[string]Constructor) Factory {
	builtin := map[string]Constructor{
		KindONNX:  newONNXModel,
		KindHash:  newHashModel,
		KindLlama: newLlamaModel,
	}
	return func(d Descriptor) (Model, error) {
		ctor, ok := extra[d.Kind]
		if !ok {
			ctor, ok = builtin[d.Kind]
		}
		if !ok {
			return nil, errs.ModelLoad(d.Name, fmt.Errorf("unknown model kind %q", d.Kind))
		}
		if d.Dimension <= 0 {
			return nil, errs.ModelLoad(d.Name, fmt.Errorf("embedding dimension must be positive"))
		}
		return ctor(d, log.With().Str("model", d.Name).Str("kind", d.Kind).Logger())
	}
}
