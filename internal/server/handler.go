// Package server implements the HTTP API of the vectorize service: feature
// extraction, model management, and cache administration.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lhnows1/textvec/internal/cache"
	"github.com/lhnows1/textvec/internal/model"
	"github.com/lhnows1/textvec/internal/registry"
	apperrors "github.com/lhnows1/textvec/pkg/errors"
	"github.com/lhnows1/textvec/pkg/logger"
	"github.com/lhnows1/textvec/pkg/metrics"
)

// VectorizeRequest is the body of POST /api/v1/vectorize. Exactly one of
// Tokens and Strings should be set; an absent sequence is extracted as the
// empty input of the model's token kind.
type VectorizeRequest struct {
	Model   string   `json:"model"`
	Tokens  []int64  `json:"tokens,omitempty"`
	Strings []string `json:"strings,omitempty"`
}

// VectorizeResponse carries the extracted feature vector.
type VectorizeResponse struct {
	Model  string    `json:"model"`
	Size   int       `json:"size"`
	Vector []float32 `json:"vector"`
	Cached bool      `json:"cached"`
}

// ModelInfo describes one loaded model for GET /api/v1/models.
type ModelInfo struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Mode       string `json:"mode"`
	OutputSize int    `json:"output_size"`
	PoolSize   int    `json:"pool_size"`
}

// Handler serves the vectorize API. The cache, registry, and metrics
// dependencies are optional; a nil value disables the corresponding feature.
type Handler struct {
	store     *model.Store
	cache     *cache.VectorCache
	registry  *registry.Registry
	metrics   *metrics.Metrics
	maxTokens int
	logger    *slog.Logger
}

// New creates the Handler.
func New(store *model.Store, vectorCache *cache.VectorCache, reg *registry.Registry, m *metrics.Metrics, maxTokens int) *Handler {
	return &Handler{
		store:     store,
		cache:     vectorCache,
		registry:  reg,
		metrics:   m,
		maxTokens: maxTokens,
		logger:    slog.Default().With("component", "vectorize-handler"),
	}
}

// Vectorize handles POST /api/v1/vectorize.
func (h *Handler) Vectorize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req VectorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Model == "" {
		h.writeError(w, http.StatusBadRequest, "model is required")
		return
	}
	if len(req.Tokens) > 0 && len(req.Strings) > 0 {
		h.writeError(w, http.StatusBadRequest, "tokens and strings are mutually exclusive")
		return
	}
	if h.maxTokens > 0 && (len(req.Tokens) > h.maxTokens || len(req.Strings) > h.maxTokens) {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("input exceeds the %d-token limit", h.maxTokens))
		return
	}

	entry, err := h.store.Get(req.Model)
	if err != nil {
		h.countVectorize(req.Model, "unknown_model")
		h.writeAppError(w, err)
		return
	}

	compute := func() ([]float32, error) {
		if entry.Extractor.Kind() == "string" {
			if len(req.Tokens) > 0 {
				return nil, fmt.Errorf("%w: model %s takes string tokens", apperrors.ErrInvalidInput, req.Model)
			}
			return entry.Extractor.TransformStrings(req.Strings)
		}
		if len(req.Strings) > 0 {
			return nil, fmt.Errorf("%w: model %s takes integer tokens", apperrors.ErrInvalidInput, req.Model)
		}
		return entry.Extractor.TransformInt64(req.Tokens)
	}

	var vector []float32
	cached := false
	if h.cache != nil {
		key := cache.KeyInt64s(req.Model, req.Tokens)
		if entry.Extractor.Kind() == "string" {
			key = cache.KeyStrings(req.Model, req.Strings)
		}
		vector, cached, err = h.cache.GetOrCompute(ctx, key, compute)
	} else {
		vector, err = compute()
	}
	if err != nil {
		h.countVectorize(req.Model, "invalid_input")
		log.Error("vectorize failed", "model", req.Model, "error", err)
		h.writeAppError(w, err)
		return
	}

	h.countVectorize(req.Model, "ok")
	if h.metrics != nil {
		h.metrics.VectorizeLatency.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())
		h.metrics.VectorizeTokens.WithLabelValues(req.Model).Observe(float64(len(req.Tokens) + len(req.Strings)))
	}
	log.Info("vectorize completed",
		"model", req.Model,
		"input_tokens", len(req.Tokens)+len(req.Strings),
		"output_size", len(vector),
		"cache_hit", cached,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	h.writeJSON(w, http.StatusOK, VectorizeResponse{
		Model:  req.Model,
		Size:   len(vector),
		Vector: vector,
		Cached: cached,
	})
}

// ListModels handles GET /api/v1/models.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	names := h.store.Names()
	infos := make([]ModelInfo, 0, len(names))
	for _, name := range names {
		entry, err := h.store.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, ModelInfo{
			Name:       name,
			Kind:       entry.Extractor.Kind(),
			Mode:       entry.Extractor.Weighting().String(),
			OutputSize: entry.Extractor.OutputSize(),
			PoolSize:   entry.Extractor.PoolSize(),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"models": infos})
}

// UploadModel handles POST /api/v1/models: it validates and compiles the
// YAML document in the body, hot-loads it into the store, and persists it to
// the registry when one is configured.
func (h *Handler) UploadModel(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<20))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "reading request body failed")
		return
	}
	m, err := model.Parse(body)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	entry, err := h.store.Put(m)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ModelsLoaded.Set(float64(h.store.Len()))
		h.metrics.PatternPoolSize.WithLabelValues(m.Name, m.Kind()).Set(float64(entry.Extractor.PoolSize()))
	}

	version := 0
	if h.registry != nil {
		version, err = h.registry.Save(r.Context(), m)
		if err != nil {
			h.logger.Error("registry save failed", "model", m.Name, "error", err)
			h.writeAppError(w, err)
			return
		}
	}

	h.logger.Info("model loaded",
		"model", m.Name,
		"kind", m.Kind(),
		"patterns", entry.Extractor.PoolSize(),
		"version", version,
	)
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"name":    m.Name,
		"version": version,
	})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) countVectorize(model, outcome string) {
	if h.metrics != nil {
		h.metrics.VectorizeTotal.WithLabelValues(model, outcome).Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
}
