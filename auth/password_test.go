package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_Bounds(t *testing.T) {
	_, err := hashPassword("1234567", bcrypt.MinCost)
	require.ErrorIs(t, err, ErrWeakPassword)

	// eight runes, more than eight bytes
	hash, err := hashPassword("éééééééé", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, VerifyPassword(hash, "éééééééé"))

	hash, err = hashPassword(strings.Repeat("a", MaxPasswordBytes), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, VerifyPassword(hash, strings.Repeat("a", MaxPasswordBytes)))

	_, err = hashPassword(strings.Repeat("a", MaxPasswordBytes+1), bcrypt.MinCost)
	require.ErrorIs(t, err, ErrPasswordTooLong)

	// 40 runes but 80 bytes
	_, err = hashPassword(strings.Repeat("é", 40), bcrypt.MinCost)
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyPassword_EmptyHash(t *testing.T) {
	require.Error(t, VerifyPassword("", "whatever1"))
}
