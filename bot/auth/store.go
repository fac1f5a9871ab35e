package auth

import (
	"context"
	"sort"
	"sync"
)

// Account is a chat user known to the bot.
type Account struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"username" json:"username"`
	Level Level  `db:"auth_level" json:"auth_level"`
}

// Store persists user role levels.
type Store interface {
	// Level returns None for unknown users.
	Level(ctx context.Context, userID int64) (Level, error)
	// SetLevel creates or updates the user record.
	SetLevel(ctx context.Context, userID int64, name string, level Level) error
	// Users lists users at or above minLevel ordered by id.
	Users(ctx context.Context, minLevel Level) ([]Account, error)
	// Remove deletes the user record; removing an unknown user is not an error.
	Remove(ctx context.Context, userID int64) error
}

// MemoryStore keeps users in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[int64]Account
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]Account)}
}

func (m *MemoryStore) Level(_ context.Context, userID int64) (Level, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID].Level, nil
}

func (m *MemoryStore) SetLevel(_ context.Context, userID int64, name string, level Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.ID = userID
	if name != "" {
		u.Name = name
	}
	u.Level = level
	m.users[userID] = u
	return nil
}

func (m *MemoryStore) Users(_ context.Context, minLevel Level) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Account, 0, len(m.users))
	for _, u := range m.users {
		if u.Level >= minLevel {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Remove(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	return nil
}
