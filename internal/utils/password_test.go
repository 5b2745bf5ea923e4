package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("p", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "p", hash)

	assert.NoError(t, CheckPassword(hash, "p"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrMismatch)
}

func TestHashPassword_DefaultCost(t *testing.T) {
	hash, err := HashPassword("secret", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("same", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	err := CheckPassword("not-a-hash", "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}
