package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"embedd/internal/common/fsutil"
	"embedd/internal/model"
)

// Scan looks for model artifacts directly under dir:
//   - *.gguf files become llama models named after the file;
//   - subdirectories holding model.onnx (or onnx/model.onnx) and tokenizer.json
//     become onnx models named after the directory. The embedding dimension
//     and sequence length come from config.json when present.
//
// Results are sorted by name.
func Scan(dir string) ([]model.Descriptor, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []model.Descriptor
	for _, e := range entries {
		name := e.Name()
		p := filepath.Join(abs, name)
		if !e.IsDir() {
			if strings.EqualFold(filepath.Ext(name), ".gguf") {
				out = append(out, model.Descriptor{
					Name:      strings.TrimSuffix(name, filepath.Ext(name)),
					Kind:      model.KindLlama,
					ModelPath: p,
					Pooling:   "mean",
				})
			}
			continue
		}
		if d, ok := scanONNXDir(name, p); ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func scanONNXDir(name, dir string) (model.Descriptor, bool) {
	tok := filepath.Join(dir, "tokenizer.json")
	if !fsutil.PathExists(tok) {
		return model.Descriptor{}, false
	}
	var modelPath string
	for _, c := range []string{"model.onnx", filepath.Join("onnx", "model.onnx")} {
		if p := filepath.Join(dir, c); fsutil.PathExists(p) {
			modelPath = p
			break
		}
	}
	if modelPath == "" {
		return model.Descriptor{}, false
	}
	d := model.Descriptor{
		Name:          name,
		Kind:          model.KindONNX,
		ModelPath:     modelPath,
		TokenizerPath: tok,
		Pooling:       "mean",
	}
	cfgPath := filepath.Join(dir, "config.json")
	if b, err := os.ReadFile(cfgPath); err == nil {
		var hf struct {
			HiddenSize            int `json:"hidden_size"`
			MaxPositionEmbeddings int `json:"max_position_embeddings"`
		}
		if json.Unmarshal(b, &hf) == nil {
			d.ConfigPath = cfgPath
			d.Dimension = hf.HiddenSize
			d.MaxSequenceLength = hf.MaxPositionEmbeddings
		}
	}
	return d, true
}
