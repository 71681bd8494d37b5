package manager

import (
	"embedd/internal/common/fsutil"
	"embedd/internal/config"
	"embedd/internal/engine"
	"embedd/internal/model"
)

// SanityReport describes runtime checks for the configured models.
type SanityReport struct {
	ONNXCompiled  bool          `json:"onnx_compiled"`
	LlamaCompiled bool          `json:"llama_compiled"`
	Models        []ModelSanity `json:"models"`
}

// ModelSanity is the check result of one enabled model.
type ModelSanity struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// OK reports whether every enabled model passed.
func (r SanityReport) OK() bool {
	for _, m := range r.Models {
		if !m.OK {
			return false
		}
	}
	return true
}

// SanityCheck validates that each enabled model's runtime is compiled in and
// its artifacts exist. It does not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	r := SanityReport{ONNXCompiled: engine.ONNXCompiled, LlamaCompiled: model.LlamaCompiled}
	for _, mc := range m.current().Enabled() {
		s := ModelSanity{ID: mc.Key, Kind: mc.Kind, OK: true}
		switch mc.Kind {
		case config.KindONNX:
			switch {
			case !engine.ONNXCompiled:
				s.Error = "onnx runtime not compiled in"
			case !fsutil.PathExists(mc.ModelPath):
				s.Error = "model file not found: " + mc.ModelPath
			case !fsutil.PathExists(mc.TokenizerPath):
				s.Error = "tokenizer file not found: " + mc.TokenizerPath
			}
		case config.KindLlama:
			switch {
			case !model.LlamaCompiled:
				s.Error = "llama support not compiled in"
			case !fsutil.PathExists(mc.ModelPath):
				s.Error = "model file not found: " + mc.ModelPath
			}
		}
		s.OK = s.Error == ""
		r.Models = append(r.Models, s)
	}
	return r
}
