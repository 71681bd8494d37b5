package model

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"embedd/internal/common/fsutil"
	"embedd/internal/engine"
	"embedd/internal/errs"
)

var errNotReady = errors.New("model not initialized")

// engineModel adapts an engine.Engine to Model. All engine access happens
// while holding genCh, so at most one call runs against the engine at a time.
type engineModel struct {
	desc  Descriptor
	build func(Descriptor) (*engine.Engine, error)
	log   zerolog.Logger

	genCh chan struct{} // size 1: single in-flight inference
	eng   *engine.Engine
	ready atomic.Bool
}

func newEngineModel(d Descriptor, log zerolog.Logger, build func(Descriptor) (*engine.Engine, error)) *engineModel {
	return &engineModel{desc: d, build: build, log: log, genCh: make(chan struct{}, 1)}
}

func newHashModel(d Descriptor, log zerolog.Logger) (Model, error) {
	return newEngineModel(d, log, func(d Descriptor) (*engine.Engine, error) {
		rt, err := engine.NewHashRuntime(d.Dimension, seedFor(d.Name))
		if err != nil {
			return nil, err
		}
		return engine.New(engine.WordTokenizer{}, rt, engineOptions(d, log)), nil
	}), nil
}

func newONNXModel(d Descriptor, log zerolog.Logger) (Model, error) {
	return newEngineModel(d, log, func(d Descriptor) (*engine.Engine, error) {
		for _, p := range []string{d.ModelPath, d.TokenizerPath} {
			if p == "" || !fsutil.PathExists(p) {
				return nil, fmt.Errorf("artifact not found: %q", p)
			}
		}
		rt, err := engine.NewONNXRuntime(engine.ONNXOptions{
			ModelPath:   d.ModelPath,
			LibraryPath: d.RuntimePath,
			Device:      d.Device(),
			Threads:     d.Threads,
		})
		if err != nil {
			return nil, err
		}
		tok, err := engine.LoadHFTokenizer(d.TokenizerPath)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		return engine.New(tok, rt, engineOptions(d, log)), nil
	}), nil
}

func engineOptions(d Descriptor, log zerolog.Logger) engine.Options {
	return engine.Options{
		Device:            d.Device(),
		BatchSize:         d.BatchSize,
		MaxSequenceLength: d.MaxSequenceLength,
		Pooling:           engine.Pooling(d.Pooling),
		Logger:            log,
	}
}

// seedFor derives a stable per-model seed so two hash models differ.
func seedFor(name string) uint64 { return xxhash.Sum64String(name) }

// beginInference acquires the single in-flight slot.
// Returns a release func to be deferred.
func (m *engineModel) beginInference(ctx context.Context) (func(), error) {
	select {
	case m.genCh <- struct{}{}:
		return func() { <-m.genCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	}
}

func (m *engineModel) Info() Info { return m.desc.Info() }

func (m *engineModel) IsReady() bool { return m.ready.Load() }

func (m *engineModel) Initialize(ctx context.Context) error {
	release, err := m.beginInference(ctx)
	if err != nil {
		return err
	}
	defer release()
	if m.ready.Load() {
		return nil
	}
	eng, err := m.build(m.desc)
	if err != nil {
		return errs.ModelLoad(m.desc.Name, err)
	}
	m.eng = eng
	m.ready.Store(true)
	m.log.Debug().Str("device", m.desc.Device()).Int("dim", m.desc.Dimension).Msg("model initialized")
	return nil
}

func (m *engineModel) EmbedText(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *engineModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	release, err := m.beginInference(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	if !m.ready.Load() {
		return nil, errs.Unavailable(m.desc.Name, errNotReady)
	}
	out, err := m.eng.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	for _, v := range out {
		if len(v) != m.desc.Dimension {
			return nil, errs.Inference("dimension check",
				fmt.Errorf("model %s produced %d values, want %d", m.desc.Name, len(v), m.desc.Dimension))
		}
	}
	return out, nil
}

// ApplyConfigChange forwards a runtime setting change to the engine.
func (m *engineModel) ApplyConfigChange(key, value string) error {
	release, _ := m.beginInference(context.Background())
	defer release()
	if !m.ready.Load() {
		return errs.Unavailable(m.desc.Name, errNotReady)
	}
	return m.eng.ApplyConfigChange(key, value)
}

func (m *engineModel) Shutdown() error {
	m.genCh <- struct{}{}
	defer func() { <-m.genCh }()
	if !m.ready.Load() {
		return nil
	}
	m.ready.Store(false)
	err := m.eng.Close()
	m.eng = nil
	return err
}

// ConfigChanger is implemented by models that accept runtime setting changes.
type ConfigChanger interface {
	ApplyConfigChange(key, value string) error
}
