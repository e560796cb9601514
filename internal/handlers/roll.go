package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/tabletop-engine/internal/engine"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/dice"
)

// RollHandler rolls dice and has the narrator interpret the outcome.
type RollHandler struct {
	processor *engine.TurnProcessor
	logger    *slog.Logger
}

func NewRollHandler(processor *engine.TurnProcessor, logger *slog.Logger) *RollHandler {
	return &RollHandler{
		processor: processor,
		logger:    logger,
	}
}

// ServeHTTP handles POST /v1/roll
func (h *RollHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		response := ErrorResponse{
			Error: "Method not allowed. Only POST is supported.",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Error encoding error response", "error", err)
		}
		return
	}

	var request chat.RollRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Invalid request body. Expected JSON with 'session_id' and 'sides' fields.",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Error encoding error response", "error", err)
		}
		return
	}

	if err := request.Validate(); err != nil {
		h.logger.Warn("Invalid roll request", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: err.Error(),
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Error encoding error response", "error", err)
		}
		return
	}

	response, err := h.processor.ProcessRoll(r.Context(), request)
	if err != nil {
		if errors.Is(err, engine.ErrSessionNotFound) {
			w.WriteHeader(http.StatusNotFound)
			errorResponse := ErrorResponse{
				Error: "Session not found.",
			}
			if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
				h.logger.Error("Error encoding error response", "error", err)
			}
			return
		}

		if errors.Is(err, dice.ErrUnsupportedDie) {
			w.WriteHeader(http.StatusBadRequest)
			errorResponse := ErrorResponse{
				Error: err.Error(),
			}
			if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
				h.logger.Error("Error encoding error response", "error", err)
			}
			return
		}

		h.logger.Error("Error processing roll", "error", err, "session_id", request.SessionID.String())
		w.WriteHeader(http.StatusInternalServerError)
		errorResponse := ErrorResponse{
			Error: "Failed to process roll. Please try again.",
		}
		if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
			h.logger.Error("Error encoding error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding roll response", "error", err)
	}
}
