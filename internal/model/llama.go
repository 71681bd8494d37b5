//go:build llama

package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"

	"embedd/internal/engine"
	"embedd/internal/errs"
)

// LlamaCompiled reports whether llama.cpp support is built in.
const LlamaCompiled = true

// llamaModel serves embeddings from a GGUF model through go-llama.cpp.
// llama.cpp pools internally; the result is L2-normalized here.
type llamaModel struct {
	desc  Descriptor
	log   zerolog.Logger
	genCh chan struct{}
	l     *llama.LLama
	ready atomic.Bool
}

func newLlamaModel(d Descriptor, log zerolog.Logger) (Model, error) {
	return &llamaModel{desc: d, log: log, genCh: make(chan struct{}, 1)}, nil
}

func (m *llamaModel) Info() Info    { return m.desc.Info() }
func (m *llamaModel) IsReady() bool { return m.ready.Load() }

func (m *llamaModel) begin(ctx context.Context) (func(), error) {
	select {
	case m.genCh <- struct{}{}:
		return func() { <-m.genCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	}
}

func (m *llamaModel) Initialize(ctx context.Context) error {
	release, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer release()
	if m.ready.Load() {
		return nil
	}
	if strings.TrimSpace(m.desc.ModelPath) == "" {
		return errs.ModelLoad(m.desc.Name, errors.New("model path is empty"))
	}
	opts := []llama.ModelOption{llama.EnableEmbeddings}
	if m.desc.MaxSequenceLength > 0 {
		opts = append(opts, llama.SetContext(m.desc.MaxSequenceLength))
	}
	if m.desc.UseGPU {
		opts = append(opts, llama.SetGPULayers(99))
	}
	l, err := llama.New(m.desc.ModelPath, opts...)
	if err != nil {
		return errs.ModelLoad(m.desc.Name, err)
	}
	m.l = l
	m.ready.Store(true)
	return nil
}

func (m *llamaModel) EmbedText(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *llamaModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errs.InvalidInput("no texts to embed")
	}
	release, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	if !m.ready.Load() {
		return nil, errs.Unavailable(m.desc.Name, errNotReady)
	}
	threads := max(1, m.desc.Threads)
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := m.l.Embeddings(text, llama.SetThreads(threads))
		if err != nil {
			return nil, errs.Inference("llama embeddings", err)
		}
		v, err := engine.L2Normalize(raw)
		if err != nil {
			return nil, errs.Inference("normalize", err)
		}
		if len(v) != m.desc.Dimension {
			return nil, errs.Inference("dimension check",
				fmt.Errorf("model %s produced %d values, want %d", m.desc.Name, len(v), m.desc.Dimension))
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *llamaModel) Shutdown() error {
	m.genCh <- struct{}{}
	defer func() { <-m.genCh }()
	if m.ready.Swap(false) && m.l != nil {
		m.l.Free()
		m.l = nil
	}
	return nil
}
