package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, CheckPassword("correct horse battery", hash))
	assert.ErrorIs(t, CheckPassword("wrong horse battery", hash), ErrInvalidPassword)
}

func TestHashPassword_Length(t *testing.T) {
	_, err := HashPassword("short", 4)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = HashPassword(strings.Repeat("a", 73), 4)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestHashPassword_CostOutOfRange(t *testing.T) {
	hash, err := HashPassword("correct horse battery", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestCheckPassword_UnusableHash(t *testing.T) {
	err := CheckPassword("correct horse battery", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPassword)
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
