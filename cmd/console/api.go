package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/tabletop-engine/pkg/chat"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateSessionRequest matches the API request structure
type CreateSessionRequest struct {
	Name  string `json:"name,omitempty"`
	Class string `json:"class,omitempty"`
	Race  string `json:"race,omitempty"`
	Seed  string `json:"seed,omitempty"`
}

// CreateSessionResponse matches the API response structure
type CreateSessionResponse struct {
	Session *state.GameState `json:"session"`
	Notice  string           `json:"notice,omitempty"`
}

// ShareResponse matches the API share response
type ShareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	// Degraded still works; turns surface problems in-conversation
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

func decodeError(statusCode int, body []byte) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return fmt.Errorf("API returned status %d: %s", statusCode, string(body))
	}
	return fmt.Errorf("%s", errorResp.Error)
}

func createSession(client *http.Client, baseURL string, req CreateSessionRequest) (*CreateSessionResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/session",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create session: %w", decodeError(resp.StatusCode, body))
	}

	var created CreateSessionResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &created, nil
}

func getSession(client *http.Client, baseURL string, sessionID uuid.UUID) (*state.GameState, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/session/%s", baseURL, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get session: %w", decodeError(resp.StatusCode, body))
	}

	var gameState state.GameState
	if err := json.Unmarshal(body, &gameState); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &gameState, nil
}

func sendChat(client *http.Client, baseURL string, sessionID uuid.UUID, message string) (*chat.ChatResponse, error) {
	chatReq := chat.ChatRequest{
		SessionID: sessionID,
		Message:   message,
	}

	jsonData, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/chat",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat request failed: %w", decodeError(resp.StatusCode, body))
	}

	var chatResp chat.ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

func sendRoll(client *http.Client, baseURL string, sessionID uuid.UUID, sides int) (*chat.RollResponse, error) {
	rollReq := chat.RollRequest{
		SessionID: sessionID,
		Sides:     sides,
	}

	jsonData, err := json.Marshal(rollReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/roll",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roll request failed: %w", decodeError(resp.StatusCode, body))
	}

	var rollResp chat.RollResponse
	if err := json.Unmarshal(body, &rollResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &rollResp, nil
}

func getShareLink(client *http.Client, baseURL string, sessionID uuid.UUID) (*ShareResponse, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/session/%s/share", baseURL, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("share request failed: %w", decodeError(resp.StatusCode, body))
	}

	var shareResp ShareResponse
	if err := json.Unmarshal(body, &shareResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &shareResp, nil
}
