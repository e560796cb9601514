package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/tabletop-engine/pkg/chat"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	msgNoResponse     = "(no response)"

	// OpenRouter attribution headers
	openRouterReferer = "https://github.com/jwebster45206/tabletop-engine"
	openRouterTitle   = "Infinite Tabletop"

	DefaultOpenRouterTemperature = 0.8
	DefaultOpenRouterMaxTokens   = 1024
)

// OpenRouterService implements LLMService against the OpenRouter
// chat-completions API (OpenAI wire format).
type OpenRouterService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// OpenRouterChatRequest represents the request structure for OpenRouter
// chat completions.
type OpenRouterChatRequest struct {
	Model       string             `json:"model"`
	Messages    []chat.ChatMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Stream      bool               `json:"stream"`
}

// OpenRouterChatChoice represents a single choice in the response.
type OpenRouterChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// OpenRouterChatResponse represents the response structure for
// OpenRouter chat completions.
type OpenRouterChatResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []OpenRouterChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

type OpenRouterModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenRouterService creates a new OpenRouter service.
func NewOpenRouterService(apiKey string, modelName string, logger *slog.Logger) *OpenRouterService {
	return &OpenRouterService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   openRouterBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

func (o *OpenRouterService) HasCredentials() bool {
	return o.apiKey != ""
}

// Chat generates a narrator reply using OpenRouter. No retries: a
// failed turn surfaces to the player in-conversation, once.
func (o *OpenRouterService) Chat(ctx context.Context, modelName string, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	if modelName == "" {
		modelName = o.modelName
	}

	orReq := OpenRouterChatRequest{
		Model:       modelName,
		Messages:    messages,
		Temperature: DefaultOpenRouterTemperature,
		MaxTokens:   DefaultOpenRouterMaxTokens,
		Stream:      false,
	}

	reqBody, err := json.Marshal(orReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", openRouterReferer)
	req.Header.Set("X-Title", openRouterTitle)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var orResp OpenRouterChatResponse
	if err := json.Unmarshal(body, &orResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if orResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", orResp.Error.Message)
	}

	content := msgNoResponse
	if len(orResp.Choices) > 0 && orResp.Choices[0].Message.Content != "" {
		content = orResp.Choices[0].Message.Content
	}

	return &chat.ChatResponse{
		Message: content,
	}, nil
}

// ListModels retrieves available models from OpenRouter.
func (o *OpenRouterService) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", o.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var modelsResp OpenRouterModelsResponse
	if err := json.Unmarshal(body, &modelsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if modelsResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", modelsResp.Error.Message)
	}

	models := make([]string, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		models = append(models, m.ID)
	}
	return models, nil
}
