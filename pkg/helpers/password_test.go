package helpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "pass1234")
	require.NoError(t, err)
	assert.NotEqual(t, "pass1234", hash)

	ok, err := h.Compare(ctx, hash, "pass1234")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(ctx, hash, "wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 1)
	a, err := h.Hash(context.Background(), "same-password")
	require.NoError(t, err)
	b, err := h.Hash(context.Background(), "same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCompareMalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 1)
	_, err := h.Compare(context.Background(), "not-a-bcrypt-hash", "x")
	assert.Error(t, err)
}

func TestHashHonoursCancelledContext(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 1)
	// occupy the only slot
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Hash(ctx, "pass1234")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvalidCostFallsBackToDefault(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99, 1).Cost())
	assert.Equal(t, 12, NewPasswordHasher(12, 1).Cost())
}
