// Package auth hashes secrets and matches login credentials.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hasisahr/csmt/internal/models"
)

// ErrCredentialMismatch means no stored login has this username and
// password together. Which half was wrong is not revealed.
var ErrCredentialMismatch = errors.New("username or password is incorrect")

// Hasher turns a password or business identifier into its stored digest
type Hasher func(plain string) string

// SHA256Hex is the default Hasher: lowercase hex of the SHA-256 digest
func SHA256Hex(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// LoginLookup finds a stored login by username
type LoginLookup interface {
	FindByUsername(username string) (models.LoginCredential, bool, error)
}

// Authenticate returns the stored credential matching username and the
// hash of password, or ErrCredentialMismatch.
func Authenticate(logins LoginLookup, hash Hasher, username, password string) (models.LoginCredential, error) {
	cred, ok, err := logins.FindByUsername(username)
	if err != nil {
		return models.LoginCredential{}, fmt.Errorf("authenticate %q: %w", username, err)
	}
	if !ok || !Equal(cred.PasswordHash, hash(password)) {
		return models.LoginCredential{}, ErrCredentialMismatch
	}
	return cred, nil
}

// Equal compares two digests in constant time
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
