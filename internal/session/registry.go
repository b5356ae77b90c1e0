package session

import (
	"context"
	"sync"
	"time"

	"github.com/comigor/ideavault/internal/logger"
)

// Registry keeps the live sessions of all browsers, keyed by session id.
// Sessions idle for longer than the TTL are dropped by Sweep.
type Registry struct {
	systemPrompt string
	ttl          time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(systemPrompt string, ttl time.Duration) *Registry {
	return &Registry{
		systemPrompt: systemPrompt,
		ttl:          ttl,
		sessions:     make(map[string]*Session),
	}
}

// Create starts a new session and registers it.
func (r *Registry) Create() *Session {
	s := New(r.systemPrompt)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id, if it is still alive.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle since before now-ttl and returns how many were
// removed. Streaming sessions are kept regardless of age.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		lastSeen, streaming := s.activity()
		if streaming || lastSeen.After(cutoff) {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				logger.L.Info("expired idle sessions", "removed", n, "live", r.Len())
			}
		}
	}
}
