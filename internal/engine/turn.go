package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/tabletop-engine/internal/services"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/dice"
	"github.com/jwebster45206/tabletop-engine/pkg/prompts"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
	"github.com/jwebster45206/tabletop-engine/pkg/storage"
)

const (
	PromptHistoryLimit = 12
	llmTimeout         = 60 * time.Second
)

// In-conversation system messages. Credential and upstream failures
// surface to the player as narrator turns rather than HTTP errors, so
// a broken key never dead-ends the session.
const (
	MsgSystemHalt    = "⚠️ SYSTEM HALT: The Oracle requires an attunement key. Configure an API key and restart the engine."
	MsgOracleFailure = "⚠️ ORACLE FAILURE: %s"
)

// ErrSessionNotFound is returned when a turn references an unknown
// session.
var ErrSessionNotFound = fmt.Errorf("session not found")

// TurnProcessor handles the core turn logic: build the prompt, call
// the LLM, apply the narrative delta, persist. It is used by the HTTP
// handlers synchronously.
type TurnProcessor struct {
	storage    storage.Storage
	llmService services.LLMService
	logger     *slog.Logger
}

// NewTurnProcessor creates a new turn processor.
func NewTurnProcessor(storage storage.Storage, llmService services.LLMService, logger *slog.Logger) *TurnProcessor {
	return &TurnProcessor{
		storage:    storage,
		llmService: llmService,
		logger:     logger,
	}
}

// ProcessTurn runs one conversational turn for a session.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req chat.ChatRequest) (*chat.ChatResponse, error) {
	gs, err := p.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return p.runTurn(ctx, gs, req.Message, nil)
}

// ProcessRoll rolls a die for a session and has the narrator interpret
// the result. The roll announcement becomes the player's turn.
func (p *TurnProcessor) ProcessRoll(ctx context.Context, req chat.RollRequest) (*chat.RollResponse, error) {
	gs, err := p.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	result, err := dice.Roll(req.Sides)
	if err != nil {
		return nil, err
	}

	resp, err := p.runTurn(ctx, gs, dice.RollMessage(req.Sides, result), &result)
	if err != nil {
		return nil, err
	}
	return &chat.RollResponse{
		Sides:        req.Sides,
		Result:       result,
		ChatResponse: *resp,
	}, nil
}

func (p *TurnProcessor) loadSession(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	gs, err := p.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if gs == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id.String())
	}
	return gs, nil
}

// runTurn appends the player turn and the narrator's reply to the
// session, applying any state delta embedded in the reply.
func (p *TurnProcessor) runTurn(ctx context.Context, gs *state.GameState, userMessage string, diceResult *int) (*chat.ChatResponse, error) {
	if !p.llmService.HasCredentials() {
		return p.haltTurn(ctx, gs, userMessage)
	}

	builder := prompts.New().
		WithGameState(gs).
		WithUserMessage(userMessage).
		WithHistoryLimit(PromptHistoryLimit)
	if diceResult != nil {
		builder = builder.WithDiceResult(*diceResult)
	}
	messages, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build chat messages: %w", err)
	}

	chatCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	p.logger.Debug("Sending chat request to LLM", "session_id", gs.ID.String(), "model", gs.Model)
	response, err := p.llmService.Chat(chatCtx, gs.Model, messages)
	if err != nil {
		p.logger.Error("LLM chat failed", "error", err, "session_id", gs.ID.String())
		return p.failTurn(ctx, gs, userMessage, err)
	}

	reply := strings.TrimSpace(response.Message)

	// Extract and apply any embedded state tag, then peel off an
	// image request if the narrator made one.
	parsed := state.ApplyNarrative(gs, reply, p.logger)
	text, imageDesc := services.ExtractImageTag(parsed.Text)

	var notices []string
	if parsed.Applied != nil && parsed.Applied.Changed() {
		notices = parsed.Applied.Notices()
	}

	gs.AppendMessage(chat.ChatRoleUser, userMessage)
	gs.AppendMessage(chat.ChatRoleAgent, text)
	gs.Started = true

	if err := p.storage.SaveSession(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &chat.ChatResponse{
		SessionID:   gs.ID,
		Message:     text,
		ImageURL:    services.SceneImageURL(imageDesc),
		Notices:     notices,
		ChatHistory: gs.ChatHistory,
	}, nil
}

// haltTurn records a missing-credentials turn. The session state is
// untouched apart from the conversation itself.
func (p *TurnProcessor) haltTurn(ctx context.Context, gs *state.GameState, userMessage string) (*chat.ChatResponse, error) {
	p.logger.Warn("Chat requested without LLM credentials", "session_id", gs.ID.String())

	gs.AppendMessage(chat.ChatRoleUser, userMessage)
	gs.AppendMessage(chat.ChatRoleAgent, MsgSystemHalt)
	if err := p.storage.SaveSession(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &chat.ChatResponse{
		SessionID:   gs.ID,
		Message:     MsgSystemHalt,
		ChatHistory: gs.ChatHistory,
	}, nil
}

// failTurn records an upstream failure as a narrator turn. No retry,
// no delta application.
func (p *TurnProcessor) failTurn(ctx context.Context, gs *state.GameState, userMessage string, llmErr error) (*chat.ChatResponse, error) {
	msg := fmt.Sprintf(MsgOracleFailure, llmErr.Error())

	gs.AppendMessage(chat.ChatRoleUser, userMessage)
	gs.AppendMessage(chat.ChatRoleAgent, msg)
	if err := p.storage.SaveSession(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &chat.ChatResponse{
		SessionID:   gs.ID,
		Message:     msg,
		ChatHistory: gs.ChatHistory,
	}, nil
}

// OpeningTurn seeds a fresh session with the narrator's opening
// scene. It does not call the LLM.
func (p *TurnProcessor) OpeningTurn(ctx context.Context, gs *state.GameState) error {
	if len(gs.ChatHistory) > 0 {
		return nil
	}
	gs.AppendMessage(chat.ChatRoleAgent, prompts.OpeningNarration)
	return p.storage.SaveSession(ctx, gs.ID, gs)
}
