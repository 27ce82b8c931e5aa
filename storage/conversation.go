// Package storage provides conversation storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory, SQLite and Redis without API changes
// - Each storage implementation encapsulates its own data structures and protocols
package storage

import (
	"context"
	"fmt"

	"github.com/richinex/genlo/model"
)

// ConversationStorage stores the turn history of chat sessions.
type ConversationStorage interface {
	// Save replaces the stored history for a session.
	Save(ctx context.Context, sessionID string, history []model.Turn) error

	// Load loads conversation history for a session.
	// Returns empty slice (not nil) if session doesn't exist.
	// Returns error only for storage failures, not missing sessions.
	Load(ctx context.Context, sessionID string) ([]model.Turn, error)

	// Delete deletes conversation history for a session.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions lists all session IDs.
	ListSessions(ctx context.Context) ([]string, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSqlite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and parameterizes a storage backend.
type Config struct {
	Backend    string
	SqlitePath string
	Redis      RedisConfig
}

// Open builds the storage backend named by cfg.Backend.
// The returned close function releases backend resources.
func Open(ctx context.Context, cfg Config) (ConversationStorage, func() error, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewInMemoryStorage(), func() error { return nil }, nil
	case BackendSqlite:
		s, err := OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case BackendRedis:
		s, err := OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func copyTurns(history []model.Turn) []model.Turn {
	copied := make([]model.Turn, len(history))
	copy(copied, history)
	return copied
}
