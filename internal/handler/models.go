package handler

import (
	"log/slog"
	"net/http"

	"github.com/shosseini811/MultiGenQA/internal/cache"
	"github.com/shosseini811/MultiGenQA/internal/provider"
)

// ModelsHandler serves the model catalog.
type ModelsHandler struct {
	cache  *cache.Cache
	logger *slog.Logger
}

// NewModelsHandler creates a new ModelsHandler.
// Pass nil for cache when Redis is not configured.
func NewModelsHandler(c *cache.Cache, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		cache:  c,
		logger: logger,
	}
}

// List handles GET /api/models.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		var cached []provider.ModelInfo
		hit, err := h.cache.GetModelList(r.Context(), &cached)
		if err != nil {
			h.logger.Warn("model list cache read failed", slog.String("error", err.Error()))
		}
		if hit {
			writeJSON(w, http.StatusOK, map[string]any{"models": cached})
			return
		}
	}

	models := provider.AvailableModels()

	if h.cache != nil {
		if err := h.cache.SetModelList(r.Context(), models); err != nil {
			h.logger.Warn("model list cache write failed", slog.String("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}
