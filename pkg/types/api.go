package types

// EmbedRequest is the body of POST /embed.
type EmbedRequest struct {
	// Text to embed. Required, at most 8192 bytes.
	// example: The quick brown fox jumps over the lazy dog.
	Text *string `json:"text" example:"The quick brown fox jumps over the lazy dog."`
	// Chunking strategy hint. Accepted for compatibility; the text is embedded as one unit.
	// example: recursive
	ChunkStyle string `json:"chunk_style,omitempty" example:"recursive"`
	// Chunk size hint. Accepted for compatibility.
	// example: 100
	ChunkSize int `json:"chunk_size,omitempty" example:"100"`
	// Optional model name. If empty, the default model is used.
	// example: all-MiniLM-L6-v2
	Model string `json:"model,omitempty" example:"all-MiniLM-L6-v2"`
}

// EmbedResponse is returned by POST /embed.
type EmbedResponse struct {
	// L2-normalized embedding vector.
	Embedding []float64 `json:"embedding"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: Text field cannot be empty
	Error string `json:"error" example:"Text field cannot be empty"`
	// Stable machine-readable error code.
	// example: EMPTY_TEXT
	Code string `json:"code,omitempty" example:"EMPTY_TEXT"`
	// Optional details (underlying error).
	Details string `json:"details,omitempty"`
}

// Error codes used in ErrorResponse.Code.
const (
	CodeMissingRequiredFields = "MISSING_REQUIRED_FIELDS"
	CodeEmptyText             = "EMPTY_TEXT"
	CodeTextTooLong           = "TEXT_TOO_LONG"
	CodeModelNotReady         = "MODEL_NOT_READY"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeInvalidJSON           = "INVALID_JSON"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeModelNotFound         = "MODEL_NOT_FOUND"
	CodeUnsupportedMediaType  = "UNSUPPORTED_MEDIA_TYPE"
	CodeConfigError           = "CONFIG_ERROR"
	CodeModelLoadFailed       = "MODEL_LOAD_FAILED"
)

// HealthResponse is returned by GET /health when the default model answers.
type HealthResponse struct {
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// Default model name.
	// example: all-MiniLM-L6-v2
	Model string `json:"model" example:"all-MiniLM-L6-v2"`
	// Service version.
	// example: 1.0.0
	Version string `json:"version" example:"1.0.0"`
	// Length of the probe embedding.
	// example: 384
	EmbeddingDimension int `json:"embedding_dimension" example:"384"`
}

// ServiceInfo is returned by GET /.
type ServiceInfo struct {
	// example: embedd
	Service string `json:"service" example:"embedd"`
	// example: 1.0.0
	Version string `json:"version" example:"1.0.0"`
	// Default model name.
	Model string `json:"model"`
	// Embedding dimension of the default model (0 if unknown).
	EmbeddingDimension int `json:"embedding_dimension"`
	// Available endpoints, "METHOD path".
	Endpoints []string `json:"endpoints"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// Configured models with their load status.
	Models []Model `json:"models"`
}

// GroupResponse is returned by GET /groups/{group}.
type GroupResponse struct {
	// example: general
	Group  string  `json:"group" example:"general"`
	Models []Model `json:"models"`
}
