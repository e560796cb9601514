package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/tabletop-engine/pkg/chat"
)

// MockLLMService is a configurable LLMService for handler and engine
// tests.
type MockLLMService struct {
	mu sync.Mutex

	ChatFunc       func(ctx context.Context, modelName string, messages []chat.ChatMessage) (*chat.ChatResponse, error)
	ListModelsFunc func(ctx context.Context) ([]string, error)
	Credentialed   bool

	// Call tracking
	ChatCalls [][]chat.ChatMessage
}

// NewMockLLMService returns a mock with credentials set and a canned
// reply.
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		Credentialed: true,
	}
}

func (m *MockLLMService) HasCredentials() bool {
	return m.Credentialed
}

func (m *MockLLMService) Chat(ctx context.Context, modelName string, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, messages)
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, modelName, messages)
	}
	return &chat.ChatResponse{Message: "The corridor stretches on into darkness."}, nil
}

func (m *MockLLMService) ListModels(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	fn := m.ListModelsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return []string{"test/model-small", "test/model-large"}, nil
}

// ChatCallCount returns the number of Chat invocations.
func (m *MockLLMService) ChatCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChatCalls)
}

// LastChatMessages returns the message slice from the most recent Chat
// call, or nil if Chat was never called.
func (m *MockLLMService) LastChatMessages() []chat.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ChatCalls) == 0 {
		return nil
	}
	return m.ChatCalls[len(m.ChatCalls)-1]
}
