package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSetSaltRounds(t *testing.T) {
	defer func() { saltRounds = bcrypt.DefaultCost }()

	assert.Error(t, SetSaltRounds(0))
	assert.Error(t, SetSaltRounds(32))

	require.NoError(t, SetSaltRounds(1))
	assert.Equal(t, bcrypt.MinCost, saltRounds)

	require.NoError(t, SetSaltRounds(12))
	assert.Equal(t, 12, saltRounds)
}

func TestHashAndCheckPassword(t *testing.T) {
	require.NoError(t, SetSaltRounds(bcrypt.MinCost))
	defer func() { saltRounds = bcrypt.DefaultCost }()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "anything"))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.ErrorIs(t, ValidatePasswordStrength("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePasswordStrength(string(make([]byte, 73))), ErrPasswordTooLong)
	assert.ErrorIs(t, ValidatePasswordStrength("password"), ErrWeakPassword)
	assert.NoError(t, ValidatePasswordStrength("Tr0ub4dor&3-lighthouse"))
}

func TestGenerateResetToken(t *testing.T) {
	a, err := GenerateResetToken()
	require.NoError(t, err)
	b, err := GenerateResetToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
