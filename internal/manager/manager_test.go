package manager

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"embedd/internal/config"
	"embedd/internal/engine"
	"embedd/internal/errs"
)

const hashModels = `
[global]
default_model = "mini"
cache_enabled = false

[models.mini]
name = "MiniLM"
enabled = true
kind = "hash"
embedding_dimension = 8

[models.wide]
enabled = true
kind = "hash"
embedding_dimension = 16
use_gpu = true

[models.off]
enabled = false
kind = "hash"
embedding_dimension = 4

[model_groups]
general = ["mini", "off"]
gpu_models = ["wide"]

[monitoring]
metrics_enabled = true
`

func parseModels(t *testing.T, doc string) config.ModelsConfig {
	t.Helper()
	cfg, err := config.ParseModels(".toml", []byte(doc))
	if err != nil {
		t.Fatalf("parse models: %v", err)
	}
	return cfg
}

func newHashManager(t *testing.T) (*Manager, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	m, err := NewWithConfig(ManagerConfig{Models: parseModels(t, hashModels), Logger: zerolog.Nop(), Publisher: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Shutdown() })
	return m, pub
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestNewWithConfig_InvalidConfig(t *testing.T) {
	cfg := parseModels(t, hashModels)
	cfg.Global.DefaultModel = "missing"
	if _, err := NewWithConfig(ManagerConfig{Models: cfg, Logger: zerolog.Nop()}); !errs.IsConfig(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestInitializeLoadsEnabledModels(t *testing.T) {
	m, pub := newHashManager(t)
	if m.Ready() {
		t.Fatalf("expected not ready before Initialize")
	}
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !m.Ready() {
		t.Fatalf("expected ready after Initialize")
	}
	loaded := m.LoadedModels()
	if len(loaded) != 2 || loaded[0].Name != "mini" || loaded[1].Name != "wide" {
		t.Fatalf("unexpected loaded models: %+v", loaded)
	}
	if !m.IsModelLoaded("MiniLM") {
		t.Fatalf("display name should resolve to a loaded model")
	}
	if m.IsModelLoaded("off") {
		t.Fatalf("disabled model must not be loaded")
	}
	if snap := m.Snapshot(); snap.State != StateReady || snap.DefaultModel != "mini" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	names := pub.Names("mini")
	if len(names) != 2 || names[0] != EventLoadStart || names[1] != EventLoaded {
		t.Fatalf("unexpected events %v", names)
	}
}

func TestEmbedResolvesDefaultAndNamedModels(t *testing.T) {
	m, _ := newHashManager(t)
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	ctx := context.Background()

	v, err := m.EmbedText(ctx, "hello world")
	if err != nil {
		t.Fatalf("embed default: %v", err)
	}
	if len(v) != 8 || math.Abs(norm(v)-1) > 1e-5 {
		t.Fatalf("default embedding len=%d norm=%f", len(v), norm(v))
	}
	w, err := m.EmbedTextWithModel(ctx, "hello world", "wide")
	if err != nil || len(w) != 16 {
		t.Fatalf("named embed len=%d err=%v", len(w), err)
	}
	if _, err := m.EmbedTextWithModel(ctx, "x", "nope"); !errs.IsModelNotFound(err) {
		t.Fatalf("expected model not found, got %v", err)
	}
	if _, err := m.EmbedTextWithModel(ctx, "x", "off"); !errs.IsModelNotFound(err) {
		t.Fatalf("configured but unloaded model should be not found, got %v", err)
	}
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	m, _ := newHashManager(t)
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	ctx := context.Background()
	texts := []string{"alpha", "beta gamma", "delta"}
	batch, err := m.EmbedBatchWithModel(ctx, texts, "MiniLM")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	for i, text := range texts {
		single, err := m.EmbedText(ctx, text)
		if err != nil {
			t.Fatalf("single %d: %v", i, err)
		}
		for j := range single {
			if single[j] != batch[i][j] {
				t.Fatalf("batch[%d] differs from single embed", i)
			}
		}
	}
	if _, err := m.EmbedBatch(ctx, nil); !errs.IsInvalidInput(err) {
		t.Fatalf("expected invalid input for empty batch, got %v", err)
	}
}

func TestModelsByGroupIgnoresLoadState(t *testing.T) {
	m, _ := newHashManager(t)
	general, ok := m.ModelsByGroup(config.GroupGeneral)
	if !ok || len(general) != 2 {
		t.Fatalf("general group: ok=%v %+v", ok, general)
	}
	if general[0].Name != "mini" || general[0].Loaded || general[1].Name != "off" {
		t.Fatalf("unexpected group members %+v", general)
	}
	if _, ok := m.ModelsByGroup("bogus"); ok {
		t.Fatalf("unknown group should report ok=false")
	}
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	general, _ = m.ModelsByGroup(config.GroupGeneral)
	if !general[0].Loaded || general[1].Loaded {
		t.Fatalf("load status not reflected: %+v", general)
	}
	gpu := m.GPUModels()
	if len(gpu) != 1 || gpu[0].Name != "wide" || gpu[0].Device != "cuda" {
		t.Fatalf("unexpected gpu models %+v", gpu)
	}
}

func TestListModelsIncludesUnloaded(t *testing.T) {
	m, _ := newHashManager(t)
	if _, err := m.LoadModel(context.Background(), "off"); err != nil {
		t.Fatalf("explicit load of disabled model: %v", err)
	}
	list := m.ListModels()
	if len(list) != 3 {
		t.Fatalf("expected 3 models, got %d", len(list))
	}
	loaded := map[string]bool{}
	for _, info := range list {
		loaded[info.Name] = info.Loaded
	}
	if !loaded["off"] || loaded["mini"] || loaded["wide"] {
		t.Fatalf("unexpected load flags %v", loaded)
	}
	if _, err := m.LoadModel(context.Background(), "ghost"); !errs.IsModelNotFound(err) {
		t.Fatalf("expected model not found, got %v", err)
	}
}

func TestUnloadModel(t *testing.T) {
	m, pub := newHashManager(t)
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := m.UnloadModel("wide"); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if _, err := m.EmbedTextWithModel(context.Background(), "x", "wide"); !errs.IsModelNotFound(err) {
		t.Fatalf("expected not found after unload, got %v", err)
	}
	if err := m.UnloadModel("wide"); !errs.IsModelNotFound(err) {
		t.Fatalf("second unload should fail with not found, got %v", err)
	}
	names := pub.Names("wide")
	if names[len(names)-1] != EventUnloaded {
		t.Fatalf("expected unloaded event, got %v", names)
	}
	if _, err := m.ModelInfo("wide"); !errs.IsModelNotFound(err) {
		t.Fatalf("expected not found info, got %v", err)
	}
}

func TestMetrics(t *testing.T) {
	m, _ := newHashManager(t)
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	_, _ = m.EmbedText(context.Background(), "a")
	_, _ = m.EmbedTextWithModel(context.Background(), "a", "nope")
	got := m.Metrics()
	if got == nil || got.TotalRequests != 1 || got.LoadedModels != 2 {
		t.Fatalf("unexpected metrics %+v", got)
	}

	cfg := parseModels(t, hashModels)
	cfg.Monitoring.MetricsEnabled = false
	off, err := NewWithConfig(ManagerConfig{Models: cfg, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if off.Metrics() != nil {
		t.Fatalf("metrics should be nil when disabled")
	}
}

func TestApplyConfigChange(t *testing.T) {
	m, _ := newHashManager(t)
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := m.ApplyConfigChange("", engine.KeyBatchSize, "8"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := m.ApplyConfigChange("", engine.KeyBatchSize, `"eight"`); !errs.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := m.ApplyConfigChange("nope", engine.KeyBatchSize, "8"); !errs.IsModelNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	m, _ := newHashManager(t)
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	st := m.Status()
	if st.State != string(StateReady) || st.DefaultModel != "mini" || len(st.Models) != 2 {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.LoadsTotal != 2 || st.Metrics == nil {
		t.Fatalf("unexpected counters %+v", st)
	}
}

func TestSanityCheckReportsMissingArtifacts(t *testing.T) {
	cfg := parseModels(t, hashModels)
	cfg.Models["bert"] = config.ModelConfig{
		Enabled:       true,
		Kind:          config.KindONNX,
		ModelPath:     "/nonexistent/model.onnx",
		TokenizerPath: "/nonexistent/tokenizer.json",
		EmbeddingDim:  384,
		PoolingMode:   config.PoolingMean,
	}
	m, err := NewWithConfig(ManagerConfig{Models: cfg, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r := m.SanityCheck()
	if r.OK() {
		t.Fatalf("expected failing report: %+v", r)
	}
	for _, s := range r.Models {
		if s.ID == "bert" && s.OK {
			t.Fatalf("bert should fail sanity check")
		}
		if s.ID == "mini" && !s.OK {
			t.Fatalf("hash model should pass: %+v", s)
		}
	}
}
