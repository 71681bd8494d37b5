//go:build !onnx

package engine

import "embedd/internal/errs"

// ONNXCompiled reports whether ONNX Runtime support is built in.
const ONNXCompiled = false

// NewONNXRuntime reports that ONNX Runtime support was not compiled in.
func NewONNXRuntime(opts ONNXOptions) (Runtime, error) {
	return nil, errs.DependencyUnavailable("onnx runtime not compiled in; rebuild with -tags onnx")
}
