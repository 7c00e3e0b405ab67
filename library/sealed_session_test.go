package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealedSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := NewMemorySession()
	s := NewSealedSession(inner, "hunter2")

	require.NoError(t, s.SetToken(ctx, "secret-token"))

	raw, err := inner.GetToken(ctx)
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret-token")

	got, err := s.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", got)

	// A fresh salt and nonce per write.
	require.NoError(t, s.SetToken(ctx, "secret-token"))
	again, _ := inner.GetToken(ctx)
	assert.NotEqual(t, raw, again)
}

func TestSealedSessionWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	inner := NewMemorySession()
	require.NoError(t, NewSealedSession(inner, "right").SetToken(ctx, "tok"))

	_, err := NewSealedSession(inner, "wrong").GetToken(ctx)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "unseal", se.Op)
	assert.NotErrorIs(t, err, ErrNoToken)
}

func TestSealedSessionCorruptValue(t *testing.T) {
	ctx := context.Background()
	inner := NewMemorySession()
	require.NoError(t, inner.SetToken(ctx, "not base64 at all!"))

	_, err := NewSealedSession(inner, "pw").GetToken(ctx)
	var se *StorageError
	require.ErrorAs(t, err, &se)
}

func TestSealedSessionEmptyAndClear(t *testing.T) {
	ctx := context.Background()
	s := NewSealedSession(NewMemorySession(), "pw")

	_, err := s.GetToken(ctx)
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.SetToken(ctx, "tok"))
	require.NoError(t, s.SetToken(ctx, ""))
	_, err = s.GetToken(ctx)
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.SetToken(ctx, "tok"))
	require.NoError(t, s.ClearToken(ctx))
	_, err = s.GetToken(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}
