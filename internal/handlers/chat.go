package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/tabletop-engine/internal/engine"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
)

// ChatHandler handles conversational turns.
type ChatHandler struct {
	processor *engine.TurnProcessor
	logger    *slog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(processor *engine.TurnProcessor, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		processor: processor,
		logger:    logger,
	}
}

// ServeHTTP handles POST /v1/chat
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for chat endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusMethodNotAllowed)
		response := chat.ChatResponse{
			Error: "Method not allowed. Only POST is supported.",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Error encoding chat error response", "error", err)
		}
		return
	}

	var request chat.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := chat.ChatResponse{
			Error: "Invalid request body. Expected JSON with 'session_id' and 'message' fields.",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Error encoding error response", "error", err)
		}
		return
	}

	if err := request.Validate(); err != nil {
		h.logger.Warn("Invalid chat request", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := chat.ChatResponse{
			Error: err.Error(),
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Error encoding error response", "error", err)
		}
		return
	}

	response, err := h.processor.ProcessTurn(r.Context(), request)
	if err != nil {
		if errors.Is(err, engine.ErrSessionNotFound) {
			h.logger.Warn("Session not found", "session_id", request.SessionID.String())
			w.WriteHeader(http.StatusNotFound)
			errorResponse := chat.ChatResponse{
				Error: "Session not found.",
			}
			if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
				h.logger.Error("Error encoding error response", "error", err)
			}
			return
		}

		h.logger.Error("Error processing turn", "error", err, "session_id", request.SessionID.String())
		w.WriteHeader(http.StatusInternalServerError)
		errorResponse := chat.ChatResponse{
			Error: "Failed to process turn. Please try again.",
		}
		if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
			h.logger.Error("Error encoding error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding chat response", "error", err)
	}
}
