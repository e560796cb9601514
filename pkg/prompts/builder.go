package prompts

import (
	"fmt"

	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/dice"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
)

// Builder constructs the message array for an LLM turn using a fluent
// interface. It separates prompt assembly from session management.
type Builder struct {
	gs           *state.GameState
	userMessage  string
	diceResult   *int
	historyLimit int
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: 12, // default history window
	}
}

// WithGameState sets the session whose sheet and history feed the prompt.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithUserMessage sets the player's message for this turn.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// WithDiceResult attaches a dice roll for the narrator to adjudicate.
func (b *Builder) WithDiceResult(result int) *Builder {
	b.diceResult = &result
	return b
}

// WithHistoryLimit sets the chat history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs the final message array for LLM consumption:
// system prompt with character sheet, windowed history, the user
// message, and an optional dice adjudication hint.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("gamestate is required")
	}

	messages := make([]chat.ChatMessage, 0, b.historyLimit+3)
	messages = append(messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: BaseSystemPrompt + "\n\n" + CharacterSheet(b.gs),
	})

	messages = append(messages, b.gs.HistoryTail(b.historyLimit)...)

	if b.userMessage != "" {
		messages = append(messages, chat.ChatMessage{
			Role:    chat.ChatRoleUser,
			Content: b.userMessage,
		})
	}

	if b.diceResult != nil {
		messages = append(messages, chat.ChatMessage{
			Role:    chat.ChatRoleUser,
			Content: dice.InterpretHint(*b.diceResult),
		})
	}

	return messages, nil
}
