package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"embedd/internal/errs"
)

// Pooling selects how token vectors are combined.
type Pooling string

const (
	PoolMean Pooling = "mean"
	PoolCLS  Pooling = "cls"
)

// Options configures an Engine.
type Options struct {
	Device            string
	BatchSize         int
	MaxSequenceLength int
	Pooling           Pooling
	Logger            zerolog.Logger
}

// Engine runs the embedding pipeline over a Tokenizer and a Runtime.
type Engine struct {
	tok Tokenizer
	rt  Runtime
	log zerolog.Logger

	mu        sync.RWMutex // guards the tunables below
	device    string
	batchSize int
	maxSeqLen int
	pooling   Pooling
}

// New returns an Engine owning rt. Close releases the runtime.
func New(tok Tokenizer, rt Runtime, opts Options) *Engine {
	if opts.Device == "" {
		opts.Device = "cpu"
	}
	if opts.Pooling == "" {
		opts.Pooling = PoolMean
	}
	return &Engine{
		tok:       tok,
		rt:        rt,
		log:       opts.Logger,
		device:    opts.Device,
		batchSize: opts.BatchSize,
		maxSeqLen: opts.MaxSequenceLength,
		pooling:   opts.Pooling,
	}
}

// EmbedTexts returns one normalized embedding per text, in input order.
// Texts are processed sequentially; the first failure aborts the call.
func (e *Engine) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errs.InvalidInput("no texts to embed")
	}
	e.mu.RLock()
	maxLen, pooling := e.maxSeqLen, e.pooling
	e.mu.RUnlock()

	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := e.embedOne(ctx, text, maxLen, pooling)
		if err != nil {
			if len(texts) > 1 {
				return nil, fmt.Errorf("text %d: %w", i, err)
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Engine) embedOne(ctx context.Context, text string, maxLen int, pooling Pooling) ([]float32, error) {
	enc, err := e.tok.Encode(text)
	if err != nil {
		return nil, errs.Inference("tokenize", err)
	}
	ids, mask := enc.IDs, enc.AttentionMask
	if len(ids) != len(mask) {
		return nil, errs.Inference("tokenize", fmt.Errorf("%d ids but %d mask values", len(ids), len(mask)))
	}
	if maxLen > 0 && len(ids) > maxLen {
		ids, mask = ids[:maxLen], mask[:maxLen]
	}
	if len(ids) == 0 {
		return nil, errs.Inference("pool", ErrNoValidTokens)
	}
	n := int64(len(ids))
	shape := []int64{1, n}
	inputs := map[string]Tensor{
		InputIDs:      {Shape: shape, Int64: ids},
		AttentionMask: {Shape: shape, Int64: mask},
		TokenTypeIDs:  {Shape: shape, Int64: make([]int64, n)},
	}
	outputs, err := e.rt.Run(ctx, inputs)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, errs.Inference("run model", err)
	}
	hidden, ok := outputs[HiddenState]
	if !ok {
		return nil, errs.Inference("run model", fmt.Errorf("missing output %q", HiddenState))
	}
	var pooled []float32
	if pooling == PoolCLS {
		pooled, err = CLSPool(hidden, mask)
	} else {
		pooled, err = MeanPool(hidden, mask)
	}
	if err != nil {
		return nil, errs.Inference("pool", err)
	}
	v, err := L2Normalize(pooled)
	if err != nil {
		return nil, errs.Inference("normalize", err)
	}
	return v, nil
}

// SetDevice records the execution device for subsequent calls.
func (e *Engine) SetDevice(device string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if device != e.device {
		e.log.Info().Str("from", e.device).Str("to", device).Msg("engine device updated")
		e.device = device
	}
}

// SetBatchSize records the preferred batch size for subsequent calls.
func (e *Engine) SetBatchSize(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n != e.batchSize {
		e.log.Info().Int("from", e.batchSize).Int("to", n).Msg("engine batch size updated")
		e.batchSize = n
	}
}

// SetMaxSequenceLength sets the token limit applied to subsequent calls.
// Zero disables truncation.
func (e *Engine) SetMaxSequenceLength(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n != e.maxSeqLen {
		e.log.Info().Int("from", e.maxSeqLen).Int("to", n).Msg("engine max sequence length updated")
		e.maxSeqLen = n
	}
}

// Settings is a snapshot of the tunables.
type Settings struct {
	Device            string  `json:"device"`
	BatchSize         int     `json:"batch_size"`
	MaxSequenceLength int     `json:"max_sequence_length"`
	Pooling           Pooling `json:"pooling"`
}

// Settings returns the current tunables.
func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Settings{Device: e.device, BatchSize: e.batchSize, MaxSequenceLength: e.maxSeqLen, Pooling: e.pooling}
}

// Keys accepted by ApplyConfigChange.
const (
	KeyDevice       = "embedding.onnx.device"
	KeyBatchSize    = "embedding.onnx.batch_size"
	KeyMaxSeqLength = "embedding.onnx.max_seq_length"
)

// ApplyConfigChange applies a runtime setting change. value is JSON encoded
// ("cuda", 16, ...). Unknown keys are ignored.
func (e *Engine) ApplyConfigChange(key, value string) error {
	switch key {
	case KeyDevice:
		var device string
		if err := json.Unmarshal([]byte(value), &device); err != nil {
			return errs.InvalidInput(fmt.Sprintf("invalid device config: %v", err))
		}
		e.SetDevice(device)
	case KeyBatchSize, KeyMaxSeqLength:
		var n uint32
		if err := json.Unmarshal([]byte(value), &n); err != nil {
			return errs.InvalidInput(fmt.Sprintf("invalid %s config: %v", key, err))
		}
		if key == KeyBatchSize {
			e.SetBatchSize(int(n))
		} else {
			e.SetMaxSequenceLength(int(n))
		}
	default:
		e.log.Debug().Str("key", key).Msg("engine ignoring config change")
	}
	return nil
}

// Close releases the runtime.
func (e *Engine) Close() error {
	return e.rt.Close()
}
