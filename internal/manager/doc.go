// Package manager is the single facade every front end talks to. It owns the
// models configuration and the registry of loaded models, resolves model names
// per request and coordinates loading, unloading and reloads. It is structured
// into small files by concern:
//
//   - manager.go: core Manager type, simple getters, name resolution.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: State and Snapshot.
//   - helpers.go: descriptor and API type conversion.
//   - ensure.go: Initialize and LoadModel with retried loads.
//   - unload.go: UnloadModel and Shutdown.
//   - infer.go: EmbedText/EmbedBatch entry points.
//   - cache.go: LRU embedding cache keyed by model and text.
//   - breaker.go: per-model circuit breakers.
//   - reload.go: ReloadConfig/Reload (validate, shut down, swap, re-initialize).
//   - metrics.go: request accounting and Prometheus collectors.
//   - status_report.go: Status/Snapshot reporting helpers.
//   - sanity.go: runtime dependency checks.
//   - events.go, eventpub_memory.go: lifecycle events.
//
// Loaded models are never retained across requests: every call resolves its
// model through the registry, so an unload or reload takes effect for the next
// request. Reload holds the manager's reload lock exclusively; all other
// operations take it shared.
package manager
