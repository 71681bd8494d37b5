//go:build onnx

package engine

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer wraps a HuggingFace tokenizer.json.
type HFTokenizer struct {
	tk *tokenizer.Tokenizer
}

// LoadHFTokenizer reads a tokenizer.json file.
func LoadHFTokenizer(path string) (*HFTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return &HFTokenizer{tk: tk}, nil
}

// Encode implements Tokenizer with special tokens added.
func (t *HFTokenizer) Encode(text string) (Encoding, error) {
	enc, err := t.tk.EncodeSingle(text, true)
	if err != nil {
		return Encoding{}, err
	}
	out := Encoding{
		IDs:           make([]int64, len(enc.Ids)),
		AttentionMask: make([]int64, len(enc.Ids)),
	}
	for i, id := range enc.Ids {
		out.IDs[i] = int64(id)
		out.AttentionMask[i] = 1
		if i < len(enc.AttentionMask) {
			out.AttentionMask[i] = int64(enc.AttentionMask[i])
		}
	}
	return out, nil
}
