package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
)

// Storage defines the interface for session persistence.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations
	SaveSession(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadSession(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}
