//go:build !llama

package model

import (
	"github.com/rs/zerolog"

	"embedd/internal/errs"
)

// LlamaCompiled reports whether llama.cpp support is built in.
const LlamaCompiled = false

// newLlamaModel refuses GGUF models when llama.cpp support is not compiled in.
func newLlamaModel(d Descriptor, _ zerolog.Logger) (Model, error) {
	return nil, errs.ModelLoad(d.Name, errs.DependencyUnavailable("llama support not built (missing 'llama' build tag)"))
}
