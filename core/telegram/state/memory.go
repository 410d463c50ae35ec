package state

import "sync"

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryStore constructs an in-memory Store implementation.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[int64]Session),
	}
}

// Get returns a copy of the chat's session if one is active.
func (m *memoryStore) Get(chatID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return Session{Step: StepIdle}, false
	}
	return s, true
}

// Put replaces the chat's session.
func (m *memoryStore) Put(chatID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.Step == StepIdle || s.Step == "" {
		delete(m.sessions, chatID)
		return
	}
	m.sessions[chatID] = s
}

// Clear discards the chat's session.
func (m *memoryStore) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
}

// InProgress reports whether the chat has an active conversation.
func (m *memoryStore) InProgress(chatID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sessions[chatID]
	return ok
}
