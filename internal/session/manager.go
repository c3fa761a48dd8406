package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Options configure a Manager.
type Options struct {
	MaxSessions     int           // oldest idle sessions are evicted beyond this
	IdleTTL         time.Duration // sessions untouched for longer are removed by Cleanup
	TranscriptLimit int
}

// Manager keeps sessions in memory. Nothing survives a restart.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

func NewManager(opts Options, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a new empty session.
func (m *Manager) Create() *Session {
	s := New(uuid.New().String(), m.opts.TranscriptLimit)
	s.CreatedAt = m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictIfNeeded()
	s.lastAccessed = s.CreatedAt
	m.sessions[s.ID] = s
	return s
}

// Get returns the session and marks it as accessed.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.lastAccessed = m.now()
	return s, nil
}

// LastAccessed reports when the session was last fetched.
func (m *Manager) LastAccessed(id string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return time.Time{}, false
	}
	return s.lastAccessed, true
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes sessions idle longer than the TTL as of now and returns
// how many were removed.
func (m *Manager) Cleanup(now time.Time) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.lastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.Info("expired idle sessions", "removed", removed, "remaining", len(m.sessions))
	}
	return removed
}

// RunJanitor calls Cleanup every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Cleanup(m.now())
		}
	}
}

// evictIfNeeded drops the least recently used sessions so one more fits.
// Caller holds m.mu.
func (m *Manager) evictIfNeeded() {
	if m.opts.MaxSessions <= 0 || len(m.sessions) < m.opts.MaxSessions {
		return
	}
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.sessions[ids[i]].lastAccessed.Before(m.sessions[ids[j]].lastAccessed)
	})
	toFree := len(m.sessions) - m.opts.MaxSessions + 1
	for _, id := range ids[:toFree] {
		delete(m.sessions, id)
		m.log.Info("evicted session to stay under capacity", "session_id", id)
	}
}
