package services

import (
	"context"

	"github.com/jwebster45206/tabletop-engine/pkg/chat"
)

// LLMService defines the interface for the chat-completion collaborator.
type LLMService interface {
	// HasCredentials reports whether the service is configured with an
	// API key. The engine refuses to attempt a network call without one.
	HasCredentials() bool

	// Chat generates a narrator reply for the given message chain,
	// using modelName when set and the service default otherwise.
	Chat(ctx context.Context, modelName string, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// ListModels retrieves the model identifiers available upstream.
	ListModels(ctx context.Context) ([]string, error)
}
