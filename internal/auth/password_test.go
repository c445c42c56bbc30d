package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	for _, pw := range []string{"secret1", "correct horse battery staple", "ünïcødé-pässwörd"} {
		first, err := h.Hash(ctx, pw)
		require.NoError(t, err)
		second, err := h.Hash(ctx, pw)
		require.NoError(t, err)

		require.NotEqual(t, first, second, "each hash must use a fresh salt")
		require.NotContains(t, first, pw)
		require.True(t, h.Verify(ctx, pw, first))
		require.True(t, h.Verify(ctx, pw, second))
		require.False(t, h.Verify(ctx, pw+"x", first))
	}
}

func TestHasherRejectsMalformedDigest(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	ctx := context.Background()

	for _, digest := range []string{"", "plaintext", "$2a$04$short"} {
		require.False(t, h.Verify(ctx, "secret1", digest))
	}
}

func TestHasherHonoursCancellation(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	digest, err := h.Hash(context.Background(), "secret1")
	require.NoError(t, err)

	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Hash(ctx, "secret1")
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, h.Verify(ctx, "secret1", digest))
}

func TestNewHasherDefaults(t *testing.T) {
	h := NewHasher(1000, 0)
	require.Equal(t, bcrypt.DefaultCost, h.cost)
}
