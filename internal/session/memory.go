package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryLock struct {
	owner string
	until time.Time
}

type memoryEntry struct {
	token    string
	hasToken bool
	locks    map[string]memoryLock
	touched  time.Time
}

// MemoryStore keeps sessions in process memory. Sessions idle longer than ttl are
// dropped by Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore builds an in-memory store. A non-positive ttl disables sweeping.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// entry returns the session entry, creating it when missing. Callers hold mu.
func (s *MemoryStore) entry(id string) *memoryEntry {
	e, ok := s.sessions[id]
	if !ok {
		e = &memoryEntry{locks: make(map[string]memoryLock)}
		s.sessions[id] = e
	}
	e.touched = s.now()
	return e
}

func (s *MemoryStore) Token(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok || !e.hasToken {
		return "", ErrNoToken
	}
	e.touched = s.now()
	return e.token, nil
}

func (s *MemoryStore) SetToken(_ context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(sessionID)
	e.token = token
	e.hasToken = true
	return nil
}

func (s *MemoryStore) ClearToken(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[sessionID]; ok {
		e.token = ""
		e.hasToken = false
	}
	return nil
}

func (s *MemoryStore) TryLock(_ context.Context, sessionID, name string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(sessionID)
	now := s.now()
	if held, ok := e.locks[name]; ok && now.Before(held.until) {
		return "", false, nil
	}
	owner := uuid.NewString()
	e.locks[name] = memoryLock{owner: owner, until: now.Add(ttl)}
	return owner, true, nil
}

func (s *MemoryStore) Unlock(_ context.Context, sessionID, name, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if held, ok := e.locks[name]; ok && held.owner == owner {
		delete(e.locks, name)
	}
	return nil
}

// Sweep removes sessions idle for longer than the store ttl and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, e := range s.sessions {
		if e.touched.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
