//go:build !onnx

package engine

import "embedd/internal/errs"

// HFTokenizer is unavailable without the onnx build tag.
type HFTokenizer struct{}

// LoadHFTokenizer reports that HuggingFace tokenizer support was not compiled in.
func LoadHFTokenizer(path string) (*HFTokenizer, error) {
	return nil, errs.DependencyUnavailable("huggingface tokenizer not compiled in; rebuild with -tags onnx")
}

// Encode implements Tokenizer.
func (t *HFTokenizer) Encode(text string) (Encoding, error) {
	return Encoding{}, errs.DependencyUnavailable("huggingface tokenizer not compiled in")
}
