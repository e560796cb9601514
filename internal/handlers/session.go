package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/prompts"
	"github.com/jwebster45206/tabletop-engine/pkg/snapshot"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
	"github.com/jwebster45206/tabletop-engine/pkg/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionHandler manages game session lifecycle: create (fresh or from
// a share-link seed), read, delete, share tokens, and save cartridges.
type SessionHandler struct {
	storage   storage.Storage
	logger    *slog.Logger
	modelName string
	baseURL   string
}

func NewSessionHandler(logger *slog.Logger, modelName, baseURL string, storage storage.Storage) *SessionHandler {
	return &SessionHandler{
		logger:    logger,
		modelName: modelName,
		baseURL:   baseURL,
		storage:   storage,
	}
}

// CreateSessionRequest defines the request body for creating a new
// session. All fields are optional; Seed restores a shared snapshot.
type CreateSessionRequest struct {
	Name  string `json:"name,omitempty"`
	Class string `json:"class,omitempty"`
	Race  string `json:"race,omitempty"`
	Level int    `json:"level,omitempty"`
	Model string `json:"model,omitempty"`
	Seed  string `json:"seed,omitempty"`
}

// CreateSessionResponse wraps the new session with an optional notice,
// set when a seed token could not be restored.
type CreateSessionResponse struct {
	Session *state.GameState `json:"session"`
	Notice  string           `json:"notice,omitempty"`
}

// ShareResponse carries a session's share token and the full link.
type ShareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

const noticeCorruptSeed = "The seed token could not be read. A fresh adventure begins instead."

// ServeHTTP handles HTTP requests for session operations
// Routes:
// POST /v1/session               - Create session (fresh or from seed)
// GET /v1/session/{id}           - Read session by ID
// DELETE /v1/session/{id}        - Delete session by ID
// GET /v1/session/{id}/share     - Share token and link
// GET /v1/session/{id}/export    - Download save cartridge
// POST /v1/session/import        - Restore from a save cartridge
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/session"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, "Method not allowed. Only POST is supported on /v1/session.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	if path == "import" {
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, "Method not allowed. Only POST is supported on /v1/session/import.")
			return
		}
		h.handleImport(w, r)
		return
	}

	segments := strings.SplitN(path, "/", 2)
	sessionID, err := uuid.Parse(segments[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", segments[0], "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Invalid session ID format",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if len(segments) == 2 {
		switch segments[1] {
		case "share":
			if r.Method != http.MethodGet {
				h.methodNotAllowed(w, "Method not allowed. Only GET is supported on share.")
				return
			}
			h.handleShare(w, r, sessionID)
		case "export":
			if r.Method != http.MethodGet {
				h.methodNotAllowed(w, "Method not allowed. Only GET is supported on export.")
				return
			}
			h.handleExport(w, r, sessionID)
		default:
			w.WriteHeader(http.StatusNotFound)
			response := ErrorResponse{
				Error: "Unknown session operation: " + segments[1],
			}
			if err := json.NewEncoder(w).Encode(response); err != nil {
				h.logger.Error("Failed to encode error response", "error", err)
			}
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleRead(w, r, sessionID)
	case http.MethodDelete:
		h.handleDelete(w, r, sessionID)
	default:
		h.methodNotAllowed(w, "Method not allowed. Supported methods: GET, DELETE")
	}
}

func (h *SessionHandler) methodNotAllowed(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusMethodNotAllowed)
	response := ErrorResponse{
		Error: msg,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new session")

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Invalid JSON in request body",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	model := req.Model
	if model == "" {
		model = h.modelName
	}

	var gs *state.GameState
	notice := ""

	if req.Seed != "" {
		snap, err := snapshot.Decode(req.Seed)
		if err != nil {
			// Corrupt seed falls back to a fresh session with a
			// visible notice, never an error.
			h.logger.Warn("Corrupt seed token on session create", "error", err)
			notice = noticeCorruptSeed
			gs = h.freshSession(req, model)
		} else {
			gs = snap.GameState(model)
			gs.AppendMessage(chat.ChatRoleAgent, prompts.TimelineShiftNarration(gs.Name, gs.Class))
		}
	} else {
		gs = h.freshSession(req, model)
	}

	if err := h.storage.SaveSession(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save new session", "error", err, "id", gs.ID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to create session",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	h.logger.Debug("Session created successfully", "id", gs.ID.String(), "seeded", req.Seed != "")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CreateSessionResponse{Session: gs, Notice: notice}); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

// freshSession builds a new session from the request's character
// fields, with the opening scene already narrated.
func (h *SessionHandler) freshSession(req CreateSessionRequest, model string) *state.GameState {
	gs := state.NewGameState(model)
	if req.Name != "" {
		gs.Name = req.Name
	}
	if req.Class != "" {
		gs.Class = req.Class
	}
	if req.Race != "" {
		gs.Race = req.Race
	}
	if req.Level > 0 {
		gs.Level = req.Level
	}
	gs.AppendMessage(chat.ChatRoleAgent, prompts.OpeningNarration)
	return gs
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	gs, ok := h.loadSession(w, r, sessionID)
	if !ok {
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	if err := h.storage.DeleteSession(r.Context(), sessionID); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "id", sessionID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to delete session",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	h.logger.Debug("Session deleted successfully", "id", sessionID.String())
	w.WriteHeader(http.StatusNoContent)
}

// loadSession loads a session, writing the error response itself when
// the load fails or the session is missing.
func (h *SessionHandler) loadSession(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) (*state.GameState, bool) {
	gs, err := h.storage.LoadSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", sessionID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to load session",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return nil, false
	}

	if gs == nil {
		h.logger.Warn("Session not found", "id", sessionID.String())
		w.WriteHeader(http.StatusNotFound)
		response := ErrorResponse{
			Error: "Session not found",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return nil, false
	}

	return gs, true
}
