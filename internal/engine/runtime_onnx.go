//go:build onnx

package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXCompiled reports whether ONNX Runtime support is built in.
const ONNXCompiled = true

var (
	ortOnce sync.Once
	ortErr  error
)

// initORT initializes the process-wide ONNX Runtime environment once.
// The shared library path of the first caller wins.
func initORT(libPath string) error {
	ortOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

type onnxRuntime struct {
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
}

// NewONNXRuntime opens an ONNX model with the three BERT-style inputs and the
// last_hidden_state output.
func NewONNXRuntime(opts ONNXOptions) (Runtime, error) {
	if err := initORT(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("onnxruntime init: %w", err)
	}
	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer so.Destroy()
	if opts.Threads > 0 {
		if err := so.SetIntraOpNumThreads(opts.Threads); err != nil {
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}
	if strings.EqualFold(opts.Device, "cuda") {
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("cuda provider: %w", err)
		}
		defer cuda.Destroy()
		if err := so.AppendExecutionProviderCUDA(cuda); err != nil {
			return nil, fmt.Errorf("append cuda provider: %w", err)
		}
	}
	in := []string{InputIDs, AttentionMask, TokenTypeIDs}
	out := []string{HiddenState}
	s, err := ort.NewDynamicAdvancedSession(opts.ModelPath, in, out, so)
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", opts.ModelPath, err)
	}
	return &onnxRuntime{session: s, inputNames: in, outputNames: out}, nil
}

func (r *onnxRuntime) Run(ctx context.Context, inputs map[string]Tensor) (map[string]Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ins := make([]ort.Value, len(r.inputNames))
	for i, name := range r.inputNames {
		t, ok := inputs[name]
		if !ok {
			return nil, fmt.Errorf("missing input %q", name)
		}
		v, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Int64)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		defer v.Destroy()
		ins[i] = v
	}
	outs := make([]ort.Value, len(r.outputNames))
	if err := r.session.Run(ins, outs); err != nil {
		return nil, err
	}
	result := make(map[string]Tensor, len(outs))
	for i, v := range outs {
		if v == nil {
			continue
		}
		defer v.Destroy()
		ft, ok := v.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("output %s: unexpected tensor type", r.outputNames[i])
		}
		data := ft.GetData()
		cp := make([]float32, len(data))
		copy(cp, data)
		result[r.outputNames[i]] = Tensor{Shape: append([]int64(nil), ft.GetShape()...), Float32: cp}
	}
	return result, nil
}

func (r *onnxRuntime) Close() error {
	return r.session.Destroy()
}
