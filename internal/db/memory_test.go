package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidhub/backend/internal/model"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m
}

func TestMemory_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	created, err := m.Create(ctx, model.User{Username: "annlee", Email: "ann@x.com", FullName: "Ann Lee", PasswordHash: "h"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, []string{}, created.WatchHistory)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := m.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "annlee", byID.Username)

	byEmail, err := m.FindByEmailOrUsername(ctx, "ann@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byUsername, err := m.FindByEmailOrUsername(ctx, "", "annlee")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	either, err := m.FindByEmailOrUsername(ctx, "other@x.com", "annlee")
	require.NoError(t, err)
	assert.Equal(t, created.ID, either.ID)
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	_, err := m.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.FindByEmailOrUsername(ctx, "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.UpdateFields(ctx, "missing", model.UserPatch{FullName: model.StringPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	_, err := m.Create(ctx, model.User{Username: "annlee", Email: "ann@x.com"})
	require.NoError(t, err)

	_, err = m.Create(ctx, model.User{Username: "annlee", Email: "new@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = m.Create(ctx, model.User{Username: "other", Email: "ann@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Equal(t, 1, m.Len())
}

func TestMemory_UpdateFields(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	u, err := m.Create(ctx, model.User{Username: "annlee", Email: "ann@x.com", FullName: "Ann"})
	require.NoError(t, err)
	_, err = m.Create(ctx, model.User{Username: "bob", Email: "bob@x.com"})
	require.NoError(t, err)

	later := u.CreatedAt.Add(time.Minute)
	m.now = func() time.Time { return later }

	updated, err := m.UpdateFields(ctx, u.ID, model.UserPatch{
		FullName:     model.StringPtr("Ann Lee"),
		RefreshToken: model.StringPtr("rt-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", updated.FullName)
	assert.Equal(t, "ann@x.com", updated.Email)
	assert.Equal(t, "rt-1", updated.RefreshToken)
	assert.Equal(t, later, updated.UpdatedAt)

	cleared, err := m.UpdateFields(ctx, u.ID, model.UserPatch{RefreshToken: model.StringPtr("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.RefreshToken)

	_, err = m.UpdateFields(ctx, u.ID, model.UserPatch{Email: model.StringPtr("bob@x.com")})
	assert.ErrorIs(t, err, ErrDuplicate)

	same, err := m.UpdateFields(ctx, u.ID, model.UserPatch{Email: model.StringPtr("ann@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", same.Email)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	u, err := m.Create(ctx, model.User{Username: "annlee", Email: "ann@x.com", WatchHistory: []string{"v1"}})
	require.NoError(t, err)

	u.WatchHistory[0] = "mutated"
	u.FullName = "mutated"

	stored, err := m.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, stored.WatchHistory)
	assert.Empty(t, stored.FullName)
}

func TestMemory_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u, err := m.Create(ctx, model.User{Username: "annlee", Email: "ann@x.com"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.UpdateFields(ctx, u.ID, model.UserPatch{RefreshToken: model.StringPtr("rt")})
			_, _ = m.FindByID(ctx, u.ID)
		}()
	}
	wg.Wait()

	stored, err := m.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "rt", stored.RefreshToken)
}
