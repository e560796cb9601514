package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/snapshot"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
	"github.com/jwebster45206/tabletop-engine/pkg/storage"
)

func setupSessionHandler(t *testing.T) (*SessionHandler, *storage.MockStorage) {
	t.Helper()
	mockStorage := storage.NewMockStorage()
	h := NewSessionHandler(testLogger(), "test/model", "http://localhost:8080", mockStorage)
	return h, mockStorage
}

func decodeCreateResponse(t *testing.T, w *httptest.ResponseRecorder) CreateSessionResponse {
	t.Helper()
	var resp CreateSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Session)
	return resp
}

func TestSessionHandler_Create(t *testing.T) {
	h, mockStorage := setupSessionHandler(t)

	w := postJSON(t, h, "/v1/session", CreateSessionRequest{
		Name:  "Wren",
		Class: "Rogue",
		Race:  "Halfling",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeCreateResponse(t, w)
	assert.Equal(t, "Wren", resp.Session.Name)
	assert.Equal(t, "Rogue", resp.Session.Class)
	assert.Equal(t, "Halfling", resp.Session.Race)
	assert.Equal(t, "test/model", resp.Session.Model)
	assert.Empty(t, resp.Notice)

	// Opening narration is already in the history
	require.NotEmpty(t, resp.Session.ChatHistory)
	assert.Equal(t, chat.ChatRoleAgent, resp.Session.ChatHistory[0].Role)

	saved, err := mockStorage.LoadSession(context.Background(), resp.Session.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
}

func TestSessionHandler_CreateEmptyBody(t *testing.T) {
	h, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/session", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeCreateResponse(t, w)
	assert.Equal(t, state.DefaultName, resp.Session.Name)
}

func TestSessionHandler_CreateFromSeed(t *testing.T) {
	h, _ := setupSessionHandler(t)

	source := state.NewGameState("test/model")
	source.Name = "Brak"
	source.HP = 3
	token, err := snapshot.Encode(source)
	require.NoError(t, err)

	w := postJSON(t, h, "/v1/session", CreateSessionRequest{Seed: token})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeCreateResponse(t, w)
	assert.Equal(t, "Brak", resp.Session.Name)
	assert.Equal(t, 3, resp.Session.HP)
	assert.True(t, resp.Session.Started)
	assert.NotEqual(t, source.ID, resp.Session.ID)
	assert.Empty(t, resp.Notice)
}

func TestSessionHandler_CreateCorruptSeedFallsBack(t *testing.T) {
	h, _ := setupSessionHandler(t)

	w := postJSON(t, h, "/v1/session", CreateSessionRequest{Seed: "!!!not-a-token!!!"})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeCreateResponse(t, w)
	assert.NotEmpty(t, resp.Notice)
	assert.Equal(t, state.DefaultName, resp.Session.Name)
	assert.Equal(t, state.DefaultMaxHP, resp.Session.HP)
}

func TestSessionHandler_Read(t *testing.T) {
	h, mockStorage := setupSessionHandler(t)

	gs := state.NewGameState("test/model")
	require.NoError(t, mockStorage.SaveSession(context.Background(), gs.ID, gs))

	req := httptest.NewRequest(http.MethodGet, "/v1/session/"+gs.ID.String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got state.GameState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, gs.ID, got.ID)
}

func TestSessionHandler_ReadNotFound(t *testing.T) {
	h, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/session/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_InvalidID(t *testing.T) {
	h, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/session/not-a-uuid", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	h, mockStorage := setupSessionHandler(t)

	gs := state.NewGameState("test/model")
	require.NoError(t, mockStorage.SaveSession(context.Background(), gs.ID, gs))

	req := httptest.NewRequest(http.MethodDelete, "/v1/session/"+gs.ID.String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	saved, err := mockStorage.LoadSession(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestSessionHandler_Share(t *testing.T) {
	h, mockStorage := setupSessionHandler(t)

	gs := state.NewGameState("test/model")
	gs.Name = "Wren"
	require.NoError(t, mockStorage.SaveSession(context.Background(), gs.ID, gs))

	req := httptest.NewRequest(http.MethodGet, "/v1/session/"+gs.ID.String()+"/share", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ShareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Contains(t, resp.URL, "http://localhost:8080/?seed=")

	// The token round-trips
	snap, err := snapshot.Decode(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "Wren", snap.Name)
}

func TestSessionHandler_ShareTokenOmitsModel(t *testing.T) {
	h, mockStorage := setupSessionHandler(t)

	gs := state.NewGameState("secret/model-name")
	require.NoError(t, mockStorage.SaveSession(context.Background(), gs.ID, gs))

	req := httptest.NewRequest(http.MethodGet, "/v1/session/"+gs.ID.String()+"/share", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ShareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	snap, err := snapshot.Decode(resp.Token)
	require.NoError(t, err)
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret/model-name")
}

func TestSessionHandler_ExportImportRoundTrip(t *testing.T) {
	h, mockStorage := setupSessionHandler(t)

	gs := state.NewGameState("test/model")
	gs.Name = "Brak"
	gs.HP = 7
	gs.AppendMessage(chat.ChatRoleUser, "I rest.")
	require.NoError(t, mockStorage.SaveSession(context.Background(), gs.ID, gs))

	req := httptest.NewRequest(http.MethodGet, "/v1/session/"+gs.ID.String()+"/export", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "brak_save.json")

	// Import the cartridge back
	req = httptest.NewRequest(http.MethodPost, "/v1/session/import", bytes.NewReader(w.Body.Bytes()))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeCreateResponse(t, w)
	assert.Equal(t, "Brak", resp.Session.Name)
	assert.Equal(t, 7, resp.Session.HP)
	assert.NotEqual(t, gs.ID, resp.Session.ID)
}

func TestSessionHandler_ExportKeepsFullHistory(t *testing.T) {
	h, mockStorage := setupSessionHandler(t)

	gs := state.NewGameState("test/model")
	gs.Name = "Brak"
	for i := 0; i < 10; i++ {
		gs.AppendMessage(chat.ChatRoleUser, fmt.Sprintf("turn %d", i))
	}
	require.NoError(t, mockStorage.SaveSession(context.Background(), gs.ID, gs))

	req := httptest.NewRequest(http.MethodGet, "/v1/session/"+gs.ID.String()+"/export", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// The cartridge itself must carry every turn, not the share-token tail.
	var snap snapshot.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.History, 10)
	assert.Equal(t, "turn 0", snap.History[0].Content)
	assert.Equal(t, "turn 9", snap.History[9].Content)

	req = httptest.NewRequest(http.MethodPost, "/v1/session/import", bytes.NewReader(w.Body.Bytes()))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeCreateResponse(t, w)
	require.GreaterOrEqual(t, len(resp.Session.ChatHistory), 10)
	for i := 0; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf("turn %d", i), resp.Session.ChatHistory[i].Content)
	}
}

func TestSessionHandler_ImportCorrupt(t *testing.T) {
	h, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/session/import", bytes.NewReader([]byte("not json at all")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	// Unlike seed tokens, a bad save file is a visible error
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "Corrupt save file")
}

func TestSessionHandler_UnknownOperation(t *testing.T) {
	h, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/session/"+uuid.New().String()+"/frobnicate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
