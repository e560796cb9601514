package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/tabletop-engine/internal/services"
	"github.com/jwebster45206/tabletop-engine/pkg/storage"
)

func TestHealthHandler_Healthy(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockLLM := services.NewMockLLMService()
	handler := NewHealthHandler(mockStorage, mockLLM, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["storage"])
	assert.Equal(t, "configured", resp.Components["llm_credentials"])
}

func TestHealthHandler_StorageDown(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.SetPingError(fmt.Errorf("connection refused"))
	handler := NewHealthHandler(mockStorage, services.NewMockLLMService(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["storage"])
}

func TestHealthHandler_MissingCredentials(t *testing.T) {
	mockLLM := services.NewMockLLMService()
	mockLLM.Credentialed = false
	handler := NewHealthHandler(storage.NewMockStorage(), mockLLM, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "missing", resp.Components["llm_credentials"])
}
