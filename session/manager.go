// Package session keeps one chat controller per conversation.
//
// Information Hiding:
// - Controller cache and per-session locking hidden behind Manager
// - History persistence through storage.ConversationStorage
// - Idle eviction policy

package session

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/richinex/genlo/flow"
	"github.com/richinex/genlo/internal/errx"
	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/model"
	"github.com/richinex/genlo/storage"
)

// Factory builds the controller for a new session.
type Factory func() (*flow.Controller, error)

type entry struct {
	mu       sync.Mutex
	ctrl     *flow.Controller
	lastUsed time.Time
}

// Manager serializes messages per session; different sessions run in parallel.
type Manager struct {
	factory Factory
	store   storage.ConversationStorage
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager creates a manager. store may be nil to keep history in memory only.
func NewManager(factory Factory, store storage.ConversationStorage) *Manager {
	return &Manager{
		factory:  factory,
		store:    store,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// acquire returns the locked entry for id, creating it on first use.
// The caller must unlock entry.mu.
func (m *Manager) acquire(ctx context.Context, id string) (*entry, error) {
	var e *entry
	for {
		m.mu.Lock()
		cur, ok := m.sessions[id]
		if !ok {
			cur = &entry{}
			m.sessions[id] = cur
		}
		m.mu.Unlock()

		cur.mu.Lock()
		m.mu.Lock()
		live := m.sessions[id] == cur
		m.mu.Unlock()
		if live {
			e = cur
			break
		}
		// pruned while waiting
		cur.mu.Unlock()
	}

	if e.ctrl == nil {
		ctrl, err := m.factory()
		if err != nil {
			e.mu.Unlock()
			m.forget(id, e)
			return nil, fmt.Errorf("create controller: %w", err)
		}
		if m.store != nil {
			history, err := m.store.Load(ctx, id)
			if err != nil {
				e.mu.Unlock()
				m.forget(id, e)
				return nil, fmt.Errorf("load session %s: %w", id, err)
			}
			ctrl.Restore(flow.Snapshot{History: history})
		}
		e.ctrl = ctrl
	}
	e.lastUsed = m.now()
	return e, nil
}

func (m *Manager) forget(id string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[id] == e {
		delete(m.sessions, id)
	}
}

// Process runs one message through the session's controller and persists
// the resulting history. It always returns an envelope.
func (m *Manager) Process(ctx context.Context, id string, req flow.Request) model.Envelope {
	e, err := m.acquire(ctx, id)
	if err != nil {
		logx.Error().Err(err).Str("session", id).Msg("failed to open session")
		return model.TextEnvelope(flow.ApologyMessage)
	}
	defer e.mu.Unlock()

	env := e.ctrl.ProcessMessage(ctx, req)

	if m.store != nil {
		// persist even if the caller went away mid-request
		if err := m.store.Save(context.WithoutCancel(ctx), id, e.ctrl.History()); err != nil {
			logx.Error().Err(err).Str("session", id).Msg("failed to save session history")
		}
	}
	return env
}

// ErrNotFound is returned for a session that is neither active nor stored.
var ErrNotFound = errx.New(nil, http.StatusNotFound, "session not found")

// History returns the session history. Inactive sessions are read from
// storage without starting a controller.
func (m *Manager) History(ctx context.Context, id string) ([]model.Turn, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()

	if ok {
		e.mu.Lock()
		if e.ctrl != nil {
			history := e.ctrl.History()
			e.mu.Unlock()
			return history, nil
		}
		e.mu.Unlock()
	}

	if m.store == nil {
		return nil, ErrNotFound
	}
	exists, err := m.store.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check session %s: %w", id, err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	history, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return history, nil
}

// Clear wipes the session state and its stored history.
func (m *Manager) Clear(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()

	if ok {
		e.mu.Lock()
		if e.ctrl != nil {
			e.ctrl.ClearHistory()
		}
		e.mu.Unlock()
	}

	if m.store != nil {
		if err := m.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	return nil
}

// Prune drops controllers idle for longer than maxIdle and returns how many
// were removed. Stored history is kept.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		// skip sessions busy on a message
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
		e.mu.Unlock()
	}
	if removed > 0 {
		logx.Debug().Int("removed", removed).Msg("pruned idle sessions")
	}
	return removed
}

// Active returns the ids of sessions with a live controller.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RunPruner calls Prune every interval until ctx is done.
func (m *Manager) RunPruner(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Prune(maxIdle)
		}
	}
}
