package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryDeletePattern(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "inventory:list:d1:aaa", []byte("1"), 0)
	_ = m.Set(ctx, "inventory:list:d1:bbb", []byte("2"), 0)
	_ = m.Set(ctx, "inventory:list:d2:aaa", []byte("3"), 0)

	require.NoError(t, m.DeletePattern(ctx, "inventory:list:d1:*"))

	_, err := m.Get(ctx, "inventory:list:d1:aaa")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "inventory:list:d2:aaa")
	assert.NoError(t, err)
}

func TestMemoryLock(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.AcquireLock(ctx, "lock", "a", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = m.AcquireLock(ctx, "lock", "b", time.Second)
	assert.False(t, ok)

	// Only the holder releases.
	require.NoError(t, m.ReleaseLock(ctx, "lock", "b"))
	ok, _ = m.AcquireLock(ctx, "lock", "b", time.Second)
	assert.False(t, ok)

	require.NoError(t, m.ReleaseLock(ctx, "lock", "a"))
	ok, _ = m.AcquireLock(ctx, "lock", "b", time.Second)
	assert.True(t, ok)
}
