package model

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embedd/internal/engine"
	"embedd/internal/errs"
)

func hashDesc(name string, dim int) Descriptor {
	return Descriptor{Name: name, Kind: KindHash, Dimension: dim, Pooling: "mean", Version: "1"}
}

func TestFactory_HashModelLifecycle(t *testing.T) {
	f := NewFactory(zerolog.Nop(), nil)
	m, err := f(hashDesc("h", 16))
	require.NoError(t, err)
	assert.False(t, m.IsReady())

	_, err = m.EmbedText(context.Background(), "before init")
	assert.True(t, errs.IsUnavailable(err))

	require.NoError(t, m.Initialize(context.Background()))
	require.True(t, m.IsReady())
	require.NoError(t, m.Initialize(context.Background()), "second Initialize is a no-op")

	v, err := m.EmbedText(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, v, 16)

	batch, err := m.EmbedBatch(context.Background(), []string{"hello world", "other"})
	require.NoError(t, err)
	assert.Equal(t, v, batch[0])

	_, err = m.EmbedBatch(context.Background(), nil)
	assert.True(t, errs.IsInvalidInput(err))

	require.NoError(t, m.Shutdown())
	assert.False(t, m.IsReady())
	require.NoError(t, m.Shutdown(), "second Shutdown is a no-op")
}

func TestFactory_DistinctModelsDiffer(t *testing.T) {
	f := NewFactory(zerolog.Nop(), nil)
	a, _ := f(hashDesc("a", 8))
	b, _ := f(hashDesc("b", 8))
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, b.Initialize(context.Background()))
	va, _ := a.EmbedText(context.Background(), "same text")
	vb, _ := b.EmbedText(context.Background(), "same text")
	assert.NotEqual(t, va, vb)
}

func TestFactory_Errors(t *testing.T) {
	f := NewFactory(zerolog.Nop(), nil)
	_, err := f(Descriptor{Name: "x", Kind: "tflite", Dimension: 4})
	assert.True(t, errs.IsModelLoad(err))

	_, err = f(Descriptor{Name: "x", Kind: KindHash})
	assert.True(t, errs.IsModelLoad(err))
}

func TestONNXModel_MissingArtifactsFailInitialize(t *testing.T) {
	f := NewFactory(zerolog.Nop(), nil)
	m, err := f(Descriptor{Name: "o", Kind: KindONNX, Dimension: 384, ModelPath: "/nope/model.onnx", TokenizerPath: "/nope/tokenizer.json"})
	require.NoError(t, err)
	err = m.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsModelLoad(err))
	assert.Contains(t, err.Error(), "/nope/model.onnx")
	assert.False(t, m.IsReady())
}

func TestFactory_ExtraConstructorWins(t *testing.T) {
	called := false
	f := NewFactory(zerolog.Nop(), map[string]Constructor{
		KindHash: func(d Descriptor, log zerolog.Logger) (Model, error) {
			called = true
			return newHashModel(d, log)
		},
	})
	_, err := f(hashDesc("h", 4))
	require.NoError(t, err)
	assert.True(t, called)
}

// blockingRuntime blocks every Run until released and tracks concurrency.
type blockingRuntime struct {
	dim     int
	gate    chan struct{}
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (b *blockingRuntime) Run(ctx context.Context, in map[string]engine.Tensor) (map[string]engine.Tensor, error) {
	n := b.active.Add(1)
	defer b.active.Add(-1)
	for {
		cur := b.maxSeen.Load()
		if n <= cur || b.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	select {
	case <-b.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	seq := len(in[engine.InputIDs].Int64)
	out := make([]float32, seq*b.dim)
	for i := range out {
		out[i] = 1
	}
	return map[string]engine.Tensor{engine.HiddenState: {Shape: []int64{1, int64(seq), int64(b.dim)}, Float32: out}}, nil
}

func (b *blockingRuntime) Close() error { return nil }

func blockingModel(t *testing.T, rt *blockingRuntime, dim int) *engineModel {
	t.Helper()
	m := newEngineModel(Descriptor{Name: "blk", Kind: "test", Dimension: dim}, zerolog.Nop(),
		func(Descriptor) (*engine.Engine, error) {
			return engine.New(engine.WordTokenizer{}, rt, engine.Options{Logger: zerolog.Nop()}), nil
		})
	require.NoError(t, m.Initialize(context.Background()))
	return m
}

func TestEngineModel_SerializesInference(t *testing.T) {
	rt := &blockingRuntime{dim: 4, gate: make(chan struct{})}
	m := blockingModel(t, rt, 4)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.EmbedText(context.Background(), "text")
			assert.NoError(t, err)
		}()
	}
	for i := 0; i < 4; i++ {
		rt.gate <- struct{}{}
	}
	wg.Wait()
	assert.Equal(t, int32(1), rt.maxSeen.Load())
}

func TestEngineModel_WaitingCallerHonorsContext(t *testing.T) {
	rt := &blockingRuntime{dim: 4, gate: make(chan struct{})}
	m := blockingModel(t, rt, 4)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.EmbedText(context.Background(), "holder")
	}()
	require.Eventually(t, func() bool { return rt.active.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.EmbedText(ctx, "waiter")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	rt.gate <- struct{}{}
	<-done
}

func TestEngineModel_ShutdownWaitsForInFlight(t *testing.T) {
	rt := &blockingRuntime{dim: 4, gate: make(chan struct{})}
	m := blockingModel(t, rt, 4)

	inflight := make(chan error, 1)
	go func() {
		_, err := m.EmbedText(context.Background(), "in flight")
		inflight <- err
	}()
	require.Eventually(t, func() bool { return rt.active.Load() == 1 }, time.Second, time.Millisecond)

	shut := make(chan struct{})
	go func() {
		_ = m.Shutdown()
		close(shut)
	}()
	select {
	case <-shut:
		t.Fatalf("Shutdown returned while inference was running")
	case <-time.After(30 * time.Millisecond):
	}
	rt.gate <- struct{}{}
	require.NoError(t, <-inflight)
	<-shut

	_, err := m.EmbedText(context.Background(), "after")
	assert.True(t, errs.IsUnavailable(err))
}

func TestEngineModel_DimensionMismatchIsInferenceError(t *testing.T) {
	rt := &blockingRuntime{dim: 3, gate: make(chan struct{}, 1)}
	rt.gate <- struct{}{}
	m := blockingModel(t, rt, 4)
	_, err := m.EmbedText(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errs.IsInference(err))
}

func TestEngineModel_ApplyConfigChange(t *testing.T) {
	m, err := newHashModel(hashDesc("h", 4), zerolog.Nop())
	require.NoError(t, err)
	cc, ok := m.(ConfigChanger)
	require.True(t, ok)
	assert.True(t, errs.IsUnavailable(cc.ApplyConfigChange(engine.KeyBatchSize, "8")))

	require.NoError(t, m.Initialize(context.Background()))
	require.NoError(t, cc.ApplyConfigChange(engine.KeyBatchSize, "8"))
	assert.Error(t, cc.ApplyConfigChange(engine.KeyBatchSize, "nope"))
}

func TestDescriptorInfo(t *testing.T) {
	d := Descriptor{Name: "g", Kind: KindLlama, Dimension: 4096, UseGPU: true}
	info := d.Info()
	assert.Equal(t, "cuda", info.Device)
	assert.True(t, info.UsesGPU)
	assert.False(t, info.Loaded)
}
