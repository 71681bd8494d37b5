package manager

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"embedd/internal/common/tracing"
	"embedd/internal/errs"
)

// EmbedText embeds text with the default model.
func (m *Manager) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return m.EmbedTextWithModel(ctx, text, "")
}

// EmbedTextWithModel embeds text with the named model (key or display name).
// An empty name selects the default model.
func (m *Manager) EmbedTextWithModel(ctx context.Context, text, name string) ([]float32, error) {
	out, err := m.embed(ctx, "manager.embed", name, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts with the default model, preserving order.
func (m *Manager) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return m.EmbedBatchWithModel(ctx, texts, "")
}

// EmbedBatchWithModel resolves name once and hands the batch to the model's
// batch entry point. Cached vectors are served without touching the model.
func (m *Manager) EmbedBatchWithModel(ctx context.Context, texts []string, name string) ([][]float32, error) {
	return m.embed(ctx, "manager.embed_batch", name, texts)
}

func (m *Manager) embed(ctx context.Context, spanName, name string, texts []string) (_ [][]float32, err error) {
	m.reloadMu.RLock()
	defer m.reloadMu.RUnlock()

	ctx, span := tracing.StartSpan(ctx, spanName,
		attribute.String("model.requested", name),
		attribute.Int("texts", len(texts)),
	)
	defer func() { tracing.End(span, err) }()

	if len(texts) == 0 {
		return nil, errs.InvalidInput("empty batch")
	}
	key, mdl, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("model", key))

	start := time.Now()
	defer func() {
		d := time.Since(start)
		m.stats.observe(key, d, err)
		if m.current().Monitoring.LogInferenceTimes {
			m.log.Debug().Str("model", key).Int("texts", len(texts)).Dur("dur", d).Err(err).Msg("embed")
		}
	}()

	cache, breakers := m.parts()
	gen := cache.generation(key)
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		if v, ok := cache.get(key, t); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	span.SetAttributes(attribute.Int("cache.misses", len(missTexts)))
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := breakers.execute(key, func() ([][]float32, error) {
		if len(missTexts) == 1 {
			v, err := mdl.EmbedText(ctx, missTexts[0])
			if err != nil {
				return nil, err
			}
			return [][]float32{v}, nil
		}
		return mdl.EmbedBatch(ctx, missTexts)
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, errs.Inference(fmt.Sprintf("model %s returned %d vectors for %d texts", key, len(vecs), len(missTexts)), nil)
	}
	for j, v := range vecs {
		out[missIdx[j]] = v
		cache.add(key, gen, missTexts[j], v)
	}
	return out, nil
}
