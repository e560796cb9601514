package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/prompts"
	"github.com/jwebster45206/tabletop-engine/pkg/snapshot"
)

// handleExport writes the session as a downloadable save cartridge:
// the snapshot JSON with the full conversation, uncompressed, suitable
// for re-import. Only share tokens truncate history.
func (h *SessionHandler) handleExport(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	gs, ok := h.loadSession(w, r, sessionID)
	if !ok {
		return
	}

	snap := snapshot.SaveFile(gs)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cartridgeFilename(gs.Name)))
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		h.logger.Error("Failed to encode save cartridge", "error", err, "id", sessionID.String())
	}
}

// handleImport restores a session from an uploaded save cartridge. A
// file that does not decode as a snapshot is rejected with 400; unlike
// seed tokens there is no silent fallback, the player chose this file.
func (h *SessionHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	var snap snapshot.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		h.logger.Warn("Corrupt save file on import", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Corrupt save file",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	gs := snap.GameState(h.modelName)
	gs.AppendMessage(chat.ChatRoleAgent, prompts.TimelineShiftNarration(gs.Name, gs.Class))

	if err := h.storage.SaveSession(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save imported session", "error", err, "id", gs.ID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to import session",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	h.logger.Debug("Session imported successfully", "id", gs.ID.String())
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CreateSessionResponse{Session: gs}); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func cartridgeFilename(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "_")
	if slug == "" {
		slug = "adventure"
	}
	return slug + "_save.json"
}
