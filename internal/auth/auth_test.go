package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasisahr/csmt/internal/models"
)

type fakeLogins map[string]models.LoginCredential

func (f fakeLogins) FindByUsername(username string) (models.LoginCredential, bool, error) {
	c, ok := f[username]
	return c, ok, nil
}

type brokenLogins struct{}

func (brokenLogins) FindByUsername(string) (models.LoginCredential, bool, error) {
	return models.LoginCredential{}, false, errors.New("disk on fire")
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(""))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", SHA256Hex("hello"))
}

func TestAuthenticate(t *testing.T) {
	logins := fakeLogins{
		"ana": {ID: 7, Username: "ana", PasswordHash: SHA256Hex("pw")},
	}

	cred, err := Authenticate(logins, SHA256Hex, "ana", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cred.ID)

	_, err = Authenticate(logins, SHA256Hex, "ana", "wrong")
	assert.ErrorIs(t, err, ErrCredentialMismatch)

	_, err = Authenticate(logins, SHA256Hex, "nobody", "pw")
	assert.ErrorIs(t, err, ErrCredentialMismatch)
}

func TestAuthenticate_StoreFailureIsNotMismatch(t *testing.T) {
	_, err := Authenticate(brokenLogins{}, SHA256Hex, "ana", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialMismatch)
}
