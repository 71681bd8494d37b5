package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"embedd/internal/manager"
	"embedd/internal/model"
	"embedd/pkg/types"
)

// MaxTextBytes is the largest text accepted by POST /embed.
const MaxTextBytes = 8192

// Default values of the chunking hints accepted by POST /embed.
const (
	defaultChunkStyle = "recursive"
	defaultChunkSize  = 100
)

// healthProbeText is embedded by GET /health.
const healthProbeText = "test"

// Service defines the methods required by the HTTP API layer.
type Service interface {
	EmbedTextWithModel(ctx context.Context, text, name string) ([]float32, error)
	DefaultModel() string
	ListModels() []model.Info
	ModelInfo(name string) (model.Info, error)
	LoadModel(ctx context.Context, name string) (model.Info, error)
	UnloadModel(name string) error
	ModelsByGroup(group string) ([]model.Info, bool)
	Status() types.StatusResponse
	Ready() bool
}

var endpoints = []string{
	"GET /",
	"POST /embed",
	"GET /health",
	"GET /models",
	"GET /models/{name}",
	"POST /models/{name}/load",
	"DELETE /models/{name}",
	"GET /groups/{group}",
	"GET /status",
	"GET /healthz",
	"GET /readyz",
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(corsHandler())
	}

	h := &handlers{svc: svc}
	r.Get("/", h.root)
	r.Post("/embed", h.embed)
	r.Get("/health", h.health)

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ModelsResponse{Models: manager.APIModels(svc.ListModels())})
	})
	r.Get("/models/{name}", func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.ModelInfo(chi.URLParam(r, "name"))
		if err != nil {
			status, code := modelErrorStatus(err)
			writeJSONError(w, status, code, err.Error(), "")
			return
		}
		writeJSON(w, manager.APIModel(info))
	})
	r.Post("/models/{name}/load", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
		defer cancel()
		info, err := svc.LoadModel(ctx, chi.URLParam(r, "name"))
		if err != nil {
			status, code := modelErrorStatus(err)
			writeJSONError(w, status, code, err.Error(), "")
			return
		}
		writeJSON(w, manager.APIModel(info))
	})
	r.Delete("/models/{name}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.UnloadModel(chi.URLParam(r, "name")); err != nil {
			status, code := modelErrorStatus(err)
			writeJSONError(w, status, code, err.Error(), "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/groups/{group}", func(w http.ResponseWriter, r *http.Request) {
		group := chi.URLParam(r, "group")
		infos, ok := svc.ModelsByGroup(group)
		if !ok {
			writeJSONError(w, http.StatusNotFound, types.CodeModelNotFound, "unknown model group: "+group, "")
			return
		}
		writeJSON(w, types.GroupResponse{Group: group, Models: manager.APIModels(infos)})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	if metricsEnabled {
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	}
	MountSwagger(r)
	return r
}

func corsHandler() func(http.Handler) http.Handler {
	methods := corsAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	}
	headers := corsAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "X-Request-Id", "X-Log-Level"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		MaxAge:         300,
	})
}

type handlers struct {
	svc Service
}

// root godoc
// @Summary      Service metadata
// @Tags         meta
// @Produce      json
// @Success      200  {object}  types.ServiceInfo
// @Router       / [get]
func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	def := h.svc.DefaultModel()
	info := types.ServiceInfo{
		Service:   serviceName,
		Version:   serviceVersion,
		Model:     def,
		Endpoints: endpoints,
	}
	if mi, err := h.svc.ModelInfo(def); err == nil {
		info.EmbeddingDimension = mi.Dimension
	}
	writeJSON(w, info)
}

// embed godoc
// @Summary      Embed text
// @Description  Returns the L2-normalized embedding of text. chunk_style and chunk_size are accepted and ignored.
// @Tags         embeddings
// @Accept       json
// @Produce      json
// @Param        request  body      types.EmbedRequest  true  "Text to embed"
// @Success      200      {object}  types.EmbedResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /embed [post]
func (h *handlers) embed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lvl := requestLogLevel(r)
	fail := func(status int, code, msg, details string) {
		incrementRejected(code)
		writeJSONError(w, status, code, msg, details)
		logRequestEnd(r, lvl, "embed end", status, start, fmt.Errorf("%s: %s", code, msg))
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			fail(http.StatusUnsupportedMediaType, types.CodeUnsupportedMediaType, "Content-Type must be application/json", "")
			return
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// size overruns are reported the same way to avoid leaking limits
		fail(http.StatusBadRequest, types.CodeInvalidJSON, "invalid JSON body", err.Error())
		return
	}
	switch {
	case req.Text == nil:
		fail(http.StatusBadRequest, types.CodeMissingRequiredFields, msgMissingText, "")
		return
	case *req.Text == "":
		fail(http.StatusBadRequest, types.CodeEmptyText, msgEmptyText, "")
		return
	case len(*req.Text) > MaxTextBytes:
		fail(http.StatusBadRequest, types.CodeTextTooLong,
			fmt.Sprintf("Text exceeds maximum length of %d characters (got %d)", MaxTextBytes, len(*req.Text)), "")
		return
	}
	if req.ChunkStyle == "" {
		req.ChunkStyle = defaultChunkStyle
	}
	if req.ChunkSize == 0 {
		req.ChunkSize = defaultChunkSize
	}

	ctx, cancel := embedContext(r)
	defer cancel()
	vec, err := h.svc.EmbedTextWithModel(ctx, *req.Text, req.Model)
	if err != nil {
		if r.Context().Err() != nil {
			// client went away
			return
		}
		status, code, msg, details := embedErrorStatus(err)
		writeJSONError(w, status, code, msg, details)
		logRequestEnd(r, lvl, "embed end", status, start, err)
		return
	}
	out := types.EmbedResponse{Embedding: make([]float64, len(vec))}
	for i, x := range vec {
		out.Embedding[i] = float64(x)
	}
	writeJSON(w, out)
	if lvl >= LevelDebug && zlog != nil {
		zlog.Debug().Str("model", req.Model).Str("chunk_style", req.ChunkStyle).Int("chunk_size", req.ChunkSize).Int("dim", len(vec)).Msg("embed")
	}
	logRequestEnd(r, lvl, "embed end", http.StatusOK, start, nil)
}

// health godoc
// @Summary      Health probe
// @Description  Embeds a fixed probe string with the default model.
// @Tags         meta
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := embedContext(r)
	defer cancel()
	vec, err := h.svc.EmbedTextWithModel(ctx, healthProbeText, "")
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, types.CodeModelNotReady, msgModelNotReady, err.Error())
		return
	}
	writeJSON(w, types.HealthResponse{
		Status:             "healthy",
		Model:              h.svc.DefaultModel(),
		Version:            serviceVersion,
		EmbeddingDimension: len(vec),
	})
}
