package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/tabletop-engine/internal/engine"
	"github.com/jwebster45206/tabletop-engine/internal/services"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
	"github.com/jwebster45206/tabletop-engine/pkg/storage"
)

func setupRollHandler(t *testing.T) (*RollHandler, *state.GameState) {
	t.Helper()
	mockStorage := storage.NewMockStorage()
	mockLLM := services.NewMockLLMService()
	mockLLM.ChatFunc = func(ctx context.Context, modelName string, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{Message: "Fate smiles on you."}, nil
	}
	processor := engine.NewTurnProcessor(mockStorage, mockLLM, testLogger())

	gs := state.NewGameState("test/model")
	require.NoError(t, mockStorage.SaveSession(context.Background(), gs.ID, gs))

	return NewRollHandler(processor, testLogger()), gs
}

func TestRollHandler_Success(t *testing.T) {
	handler, gs := setupRollHandler(t)

	w := postJSON(t, handler, "/v1/roll", chat.RollRequest{
		SessionID: gs.ID,
		Sides:     20,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp chat.RollResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 20, resp.Sides)
	assert.GreaterOrEqual(t, resp.Result, 1)
	assert.LessOrEqual(t, resp.Result, 20)
	assert.Equal(t, "Fate smiles on you.", resp.Message)
}

func TestRollHandler_UnsupportedDie(t *testing.T) {
	handler, gs := setupRollHandler(t)

	w := postJSON(t, handler, "/v1/roll", chat.RollRequest{
		SessionID: gs.ID,
		Sides:     3,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRollHandler_MissingSides(t *testing.T) {
	handler, gs := setupRollHandler(t)

	w := postJSON(t, handler, "/v1/roll", chat.RollRequest{SessionID: gs.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRollHandler_SessionNotFound(t *testing.T) {
	handler, _ := setupRollHandler(t)

	w := postJSON(t, handler, "/v1/roll", chat.RollRequest{
		SessionID: uuid.New(),
		Sides:     6,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
