package domain_test

import (
	"testing"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := domain.NewUser("id-1", "  Alice_42 ")
	require.NoError(t, err)
	assert.Equal(t, "alice_42", user.Username)

	_, err = domain.NewUser("id-2", "ab")
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	_, err = domain.NewUser("id-3", "has spaces")
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)
}

func TestUser_PasswordLifecycle(t *testing.T) {
	user, err := domain.NewUser("id-1", "alice")
	require.NoError(t, err)

	assert.ErrorIs(t, user.SetPassword("short"), domain.ErrPasswordTooShort)

	require.NoError(t, user.SetPassword("correct-horse-battery"))
	assert.NoError(t, user.CheckPassword("correct-horse-battery"))
	assert.ErrorIs(t, user.CheckPassword("wrong-password"), domain.ErrInvalidCredentials)
}
