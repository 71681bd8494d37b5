// Package engine turns text into L2-normalized sentence embeddings.
//
// The pipeline for each text is: tokenize, truncate to the configured
// maximum sequence length, build the three int64 input tensors
// (input_ids, attention_mask, token_type_ids; shape [1, seq]), run the
// model, pool last_hidden_state ([1, seq, hidden]) and L2-normalize.
//
// Files:
//   - engine.go: Engine, tuning setters, ApplyConfigChange.
//   - pooling.go: MeanPool, CLSPool, L2Normalize.
//   - tensor.go: Tensor and the Runtime interface.
//   - tokenizer.go: Tokenizer interface and the pure-Go WordTokenizer.
//   - tokenizer_hf.go: HuggingFace tokenizer.json loader.
//   - runtime_hash.go: deterministic feature-hashing runtime (no native deps).
//   - runtime_onnx.go / runtime_onnx_stub.go: ONNX Runtime adapter (build tag "onnx").
//
// An Engine is not safe for concurrent EmbedTexts calls; callers serialize
// access per model. Tuning setters may be called at any time and apply to
// subsequent calls only.
package engine
