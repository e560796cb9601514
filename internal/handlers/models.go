package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/tabletop-engine/internal/services"
)

// ModelsResponse lists the upstream models a session can be pointed at.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

type ModelsHandler struct {
	llmService services.LLMService
	logger     *slog.Logger
	modelName  string
}

func NewModelsHandler(llmService services.LLMService, modelName string, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		llmService: llmService,
		logger:     logger,
		modelName:  modelName,
	}
}

// ServeHTTP handles GET /v1/models
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		response := ErrorResponse{
			Error: "Method not allowed. Only GET is supported.",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Error encoding error response", "error", err)
		}
		return
	}

	models, err := h.llmService.ListModels(r.Context())
	if err != nil {
		// The default is always usable even when the upstream list is
		// unavailable.
		h.logger.Warn("Failed to list upstream models", "error", err)
		models = []string{h.modelName}
	}

	w.WriteHeader(http.StatusOK)
	response := ModelsResponse{
		Models:  models,
		Default: h.modelName,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding models response", "error", err)
	}
}
