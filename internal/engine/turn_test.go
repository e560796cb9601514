package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/tabletop-engine/internal/services"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
	"github.com/jwebster45206/tabletop-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTurn(t *testing.T) (*TurnProcessor, *storage.MockStorage, *services.MockLLMService, *state.GameState) {
	t.Helper()
	mockStorage := storage.NewMockStorage()
	mockLLM := services.NewMockLLMService()
	p := NewTurnProcessor(mockStorage, mockLLM, testLogger())

	gs := state.NewGameState("test/model")
	require.NoError(t, mockStorage.SaveSession(context.Background(), gs.ID, gs))
	return p, mockStorage, mockLLM, gs
}

func TestProcessTurn_AppliesStateTag(t *testing.T) {
	p, mockStorage, mockLLM, gs := setupTurn(t)
	mockLLM.ChatFunc = func(ctx context.Context, modelName string, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{
			Message: `You fall into a pit. [STATE: {"hp_change": -4, "gold_change": 5}]`,
		}, nil
	}

	resp, err := p.ProcessTurn(context.Background(), chat.ChatRequest{
		SessionID: gs.ID,
		Message:   "I walk forward.",
	})
	require.NoError(t, err)

	assert.Equal(t, "You fall into a pit.", resp.Message)
	assert.Equal(t, []string{"HP -4", "Gold +5"}, resp.Notices)

	saved, err := mockStorage.LoadSession(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, saved.HP)
	assert.Equal(t, 15, saved.Currency["gold"])
	require.Len(t, saved.ChatHistory, 2)
	assert.Equal(t, chat.ChatRoleUser, saved.ChatHistory[0].Role)
	assert.Equal(t, "I walk forward.", saved.ChatHistory[0].Content)
	assert.Equal(t, "You fall into a pit.", saved.ChatHistory[1].Content)
}

func TestProcessTurn_ImageTag(t *testing.T) {
	p, _, mockLLM, gs := setupTurn(t)
	mockLLM.ChatFunc = func(ctx context.Context, modelName string, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{
			Message: "A tower looms ahead. [IMAGE: ruined wizard tower at dusk]",
		}, nil
	}

	resp, err := p.ProcessTurn(context.Background(), chat.ChatRequest{
		SessionID: gs.ID,
		Message:   "I look around.",
	})
	require.NoError(t, err)
	assert.Equal(t, "A tower looms ahead.", resp.Message)
	assert.Contains(t, resp.ImageURL, "image.pollinations.ai")
}

func TestProcessTurn_MissingCredentials(t *testing.T) {
	p, mockStorage, mockLLM, gs := setupTurn(t)
	mockLLM.Credentialed = false

	resp, err := p.ProcessTurn(context.Background(), chat.ChatRequest{
		SessionID: gs.ID,
		Message:   "Hello?",
	})
	require.NoError(t, err)
	assert.Equal(t, MsgSystemHalt, resp.Message)
	assert.Zero(t, mockLLM.ChatCallCount())

	// Halt is recorded in-conversation, state otherwise untouched
	saved, err := mockStorage.LoadSession(context.Background(), gs.ID)
	require.NoError(t, err)
	require.Len(t, saved.ChatHistory, 2)
	assert.Equal(t, MsgSystemHalt, saved.ChatHistory[1].Content)
	assert.Equal(t, 10, saved.HP)
}

func TestProcessTurn_UpstreamFailure(t *testing.T) {
	p, mockStorage, mockLLM, gs := setupTurn(t)
	mockLLM.ChatFunc = func(ctx context.Context, modelName string, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, fmt.Errorf("upstream timeout")
	}

	resp, err := p.ProcessTurn(context.Background(), chat.ChatRequest{
		SessionID: gs.ID,
		Message:   "I attack.",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "ORACLE FAILURE")
	assert.Contains(t, resp.Message, "upstream timeout")

	// Exactly one LLM attempt, failure recorded as a narrator turn
	assert.Equal(t, 1, mockLLM.ChatCallCount())
	saved, err := mockStorage.LoadSession(context.Background(), gs.ID)
	require.NoError(t, err)
	require.Len(t, saved.ChatHistory, 2)
	assert.Contains(t, saved.ChatHistory[1].Content, "ORACLE FAILURE")
}

func TestProcessTurn_SessionNotFound(t *testing.T) {
	p, _, _, _ := setupTurn(t)

	_, err := p.ProcessTurn(context.Background(), chat.ChatRequest{
		SessionID: uuid.New(),
		Message:   "hello",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProcessRoll(t *testing.T) {
	p, _, mockLLM, gs := setupTurn(t)
	mockLLM.ChatFunc = func(ctx context.Context, modelName string, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{Message: "The blade finds its mark."}, nil
	}

	resp, err := p.ProcessRoll(context.Background(), chat.RollRequest{
		SessionID: gs.ID,
		Sides:     20,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Sides)
	assert.GreaterOrEqual(t, resp.Result, 1)
	assert.LessOrEqual(t, resp.Result, 20)
	assert.Equal(t, "The blade finds its mark.", resp.Message)

	// The roll announcement and an interpretation hint both reach the
	// prompt.
	msgs := mockLLM.LastChatMessages()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-2].Content, "I rolled a")
	assert.Contains(t, msgs[len(msgs)-1].Content, "Interpret")
}

func TestProcessRoll_UnsupportedDie(t *testing.T) {
	p, _, _, gs := setupTurn(t)

	_, err := p.ProcessRoll(context.Background(), chat.RollRequest{
		SessionID: gs.ID,
		Sides:     7,
	})
	require.Error(t, err)
}

func TestOpeningTurn(t *testing.T) {
	p, mockStorage, _, gs := setupTurn(t)

	require.NoError(t, p.OpeningTurn(context.Background(), gs))
	saved, err := mockStorage.LoadSession(context.Background(), gs.ID)
	require.NoError(t, err)
	require.Len(t, saved.ChatHistory, 1)
	assert.Equal(t, chat.ChatRoleAgent, saved.ChatHistory[0].Role)

	// Idempotent on a non-empty history
	require.NoError(t, p.OpeningTurn(context.Background(), saved))
	saved, err = mockStorage.LoadSession(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.Len(t, saved.ChatHistory, 1)
}
