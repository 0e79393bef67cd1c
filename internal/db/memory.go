// In-process user store.
// Used when STORE_DRIVER=memory and as the store behind service and handler tests.

package db

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vidhub/backend/internal/model"
)

type Memory struct {
	mu    sync.RWMutex
	users map[string]model.User
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]model.User),
		now:   time.Now,
	}
}

func (m *Memory) FindByEmailOrUsername(_ context.Context, email, username string) (*model.User, error) {
	if email == "" && username == "" {
		return nil, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if (email != "" && u.Email == email) || (username != "" && u.Username == username) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) Create(_ context.Context, user model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, ErrDuplicate
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := m.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.WatchHistory == nil {
		user.WatchHistory = []string{}
	}

	m.users[user.ID] = *cloneUser(user)
	return cloneUser(user), nil
}

func (m *Memory) UpdateFields(_ context.Context, id string, patch model.UserPatch) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	if patch.Email != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Email == *patch.Email {
				return nil, ErrDuplicate
			}
		}
	}

	applyPatch(&u, patch)
	u.UpdatedAt = m.now().UTC()
	m.users[id] = u
	return cloneUser(u), nil
}

// Len reports the number of stored users.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

func applyPatch(u *model.User, patch model.UserPatch) {
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.CoverImage != nil {
		u.CoverImage = *patch.CoverImage
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	if patch.RefreshToken != nil {
		u.RefreshToken = *patch.RefreshToken
	}
}

func cloneUser(u model.User) *model.User {
	if u.WatchHistory != nil {
		history := make([]string, len(u.WatchHistory))
		copy(history, u.WatchHistory)
		u.WatchHistory = history
	}
	return &u
}
