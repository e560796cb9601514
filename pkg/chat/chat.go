package chat

import (
	"fmt"

	"github.com/google/uuid"
)

// ChatRequest represents a chat message request made by the player
// to the tabletop-engine api.
type ChatRequest struct {
	SessionID uuid.UUID `json:"session_id"` // Unique ID for the game session
	Message   string    `json:"message"`
}

// ChatResponse represents a chat message response returned by the
// tabletop-engine api. Narrative is returned with any embedded state
// tag already stripped; ImageURL is set when the narrator requested
// a scene illustration.
type ChatResponse struct {
	SessionID   uuid.UUID     `json:"session_id,omitempty"`
	Message     string        `json:"message,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	Notices     []string      `json:"notices,omitempty"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// RollRequest asks the engine to roll a die and have the narrator
// interpret the result.
type RollRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Sides     int       `json:"sides"`
}

// RollResponse carries the die result alongside the narrator's
// interpretation of it.
type RollResponse struct {
	Sides  int `json:"sides"`
	Result int `json:"result"`
	ChatResponse
}

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Dungeon Master
	ChatRoleSystem = "system"    // Engine instructions
)

// ChatMessage represents a single chat message in the conversation.
// The shape matches the OpenAI-style chat completion message format
// used by the upstream LLM APIs.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

func (rr *RollRequest) Validate() error {
	if rr.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	if rr.Sides <= 0 {
		return fmt.Errorf("sides must be positive")
	}
	return nil
}

func (cr *ChatRequest) Validate() error {
	if cr.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if cr.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	return nil
}
