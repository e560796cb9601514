package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jwebster45206/tabletop-engine/pkg/snapshot"
)

// handleShare encodes the session into a compact seed token and a
// shareable link. The token carries the character and the recent
// conversation only; credentials and the model name stay server-side.
func (h *SessionHandler) handleShare(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	gs, ok := h.loadSession(w, r, sessionID)
	if !ok {
		return
	}

	token, err := snapshot.Encode(gs)
	if err != nil {
		h.logger.Error("Failed to encode share token", "error", err, "id", sessionID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to encode share token",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	response := ShareResponse{
		Token: token,
		URL:   h.baseURL + "/?seed=" + url.QueryEscape(token),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode share response", "error", err)
	}
}
