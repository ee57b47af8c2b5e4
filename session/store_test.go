package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, Session{
		AdminID:   1,
		Username:  "admin",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.AdminID)
	assert.Equal(t, "admin", s.Username)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpiredSessionNotReturned(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, Session{
		AdminID:   1,
		Username:  "admin",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UniqueIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := store.Create(ctx, Session{AdminID: 1, ExpiresAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		require.False(t, seen[id], "session id reused")
		seen[id] = true
	}
}

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec := NewCookieCodec("test-secret")

	signed, err := codec.Sign("session-123", time.Now().Add(time.Hour))
	require.NoError(t, err)

	id, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "session-123", id)
}

func TestCookieCodec_RejectsTamperedToken(t *testing.T) {
	codec := NewCookieCodec("test-secret")

	signed, err := codec.Sign("session-123", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = codec.Verify(signed + "x")
	assert.Error(t, err)

	other := NewCookieCodec("different-secret")
	_, err = other.Verify(signed)
	assert.Error(t, err)
}

func TestCookieCodec_RejectsExpiredToken(t *testing.T) {
	codec := NewCookieCodec("test-secret")

	signed, err := codec.Sign("session-123", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.Error(t, err)
}
