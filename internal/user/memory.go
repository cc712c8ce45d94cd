package user

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store for dev and tests.
type MemoryStore struct {
	mu    sync.Mutex
	byID  map[string]*User
	email map[string]string // email -> id
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*User), email: make(map[string]string)}
}

// Create stores a copy of the user.
func (m *MemoryStore) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[u.Email]; ok {
		return ErrEmailTaken
	}
	if u.MatricNumber != "" {
		for _, existing := range m.byID {
			if existing.MatricNumber == u.MatricNumber {
				return ErrMatricTaken
			}
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.email[u.Email] = u.ID
	return nil
}

// GetByID returns a copy of the user or ErrUserNotFound.
func (m *MemoryStore) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetByEmail returns a copy of the user or ErrUserNotFound.
func (m *MemoryStore) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.email[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

// Update rewrites the stored user.
func (m *MemoryStore) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return ErrUserNotFound
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

// Delete removes the user.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(m.email, u.Email)
	delete(m.byID, id)
	return nil
}
