package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	ok, err := CheckPassword(hash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "secret2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_UsesCost(t *testing.T) {
	hash, err := HashPassword("secret1", 5)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	_, err := CheckPassword("not-a-hash", "secret1")
	assert.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IdentityFrom(ctx).Authenticated())

	ctx = WithIdentity(ctx, Identity{UserID: "u1", Email: "a@b.c"})
	got := IdentityFrom(ctx)
	assert.True(t, got.Authenticated())
	assert.Equal(t, "a@b.c", got.Email)
}
