package session

import (
	"context"
	"sync"
	"time"

	"github.com/fpang/neuroscan-edit/internal/codec"
	"github.com/rs/zerolog/log"
)

// Manager owns the sessions of a running server, one per browser tab. All
// sessions share the handle store and the editor.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store    *codec.Store
	editor   Editor
	codec    codec.Options
	observer Observer
	now      func() time.Time
}

// NewManager creates an empty manager. observer may be nil.
func NewManager(store *codec.Store, editor Editor, opts codec.Options, observer Observer) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		editor:   editor,
		codec:    opts,
		observer: observer,
		now:      time.Now,
	}
}

// Store returns the shared handle store.
func (m *Manager) Store() *codec.Store {
	return m.store
}

// Create registers a new idle session.
func (m *Manager) Create() *Session {
	s := New(Options{
		Store:    m.store,
		Editor:   m.editor,
		Codec:    m.codec,
		Observer: m.observer,
		Now:      m.now,
	})

	m.mu.Lock()
	m.sessions[s.ID()] = s
	count := len(m.sessions)
	m.mu.Unlock()

	log.Info().Str("session", s.ID()).Int("active_sessions", count).Msg("Session created")
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete resets and forgets the session with id.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Reset()
		log.Info().Str("session", id).Msg("Session deleted")
	}
	return ok
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than maxIdle, releasing their
// handles. Sessions with an edit in flight are kept. Returns the number
// evicted.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.Status() == StatusProcessing || s.LastActive().After(cutoff) {
			continue
		}
		stale = append(stale, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Reset()
	}
	if len(stale) > 0 {
		log.Info().Int("evicted", len(stale)).Int("live_handles", m.store.Len()).Msg("Evicted idle sessions")
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(maxIdle)
		}
	}
}
