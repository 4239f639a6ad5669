package files

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompanyCredentials_MissingFileIsEmpty(t *testing.T) {
	s := NewCompanyCredentials(filepath.Join(t.TempDir(), "companies.txt"), discardLogger())

	creds, err := s.FindAll()
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestCompanyCredentials_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dat", "companies.txt")
	s := NewCompanyCredentials(path, discardLogger())

	first := models.CompanyCredential{ID: 1, IdentifierHash: "aaa"}
	second := models.CompanyCredential{ID: 2, IdentifierHash: "bbb"}
	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(second))

	creds, err := s.FindAll()
	require.NoError(t, err)
	assert.Equal(t, []models.CompanyCredential{first, second}, creds)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\naaa\n2\nbbb\n", string(data))
}

func TestCompanyCredentials_OddTailIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.txt")
	require.NoError(t, os.WriteFile(path, []byte("1\naaa\n2\n"), 0o600))
	s := NewCompanyCredentials(path, discardLogger())

	creds, err := s.FindAll()
	require.NoError(t, err)
	assert.Equal(t, []models.CompanyCredential{{ID: 1, IdentifierHash: "aaa"}}, creds)
}

func TestCompanyCredentials_BadIDIsStorageError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\naaa\n"), 0o600))
	s := NewCompanyCredentials(path, discardLogger())

	_, err := s.FindAll()
	assert.True(t, store.IsStorageError(err))
}

func TestCompanyCredentials_FindByID(t *testing.T) {
	s := NewCompanyCredentials(filepath.Join(t.TempDir(), "companies.txt"), discardLogger())
	require.NoError(t, s.Save(models.CompanyCredential{ID: 4, IdentifierHash: "h4"}))

	c, err := s.FindByID(4)
	require.NoError(t, err)
	assert.Equal(t, "h4", c.IdentifierHash)

	_, err = s.FindByID(5)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompanyCredentials_HashesUnique(t *testing.T) {
	s := NewCompanyCredentials(filepath.Join(t.TempDir(), "companies.txt"), discardLogger())
	require.NoError(t, s.Save(models.CompanyCredential{ID: 1, IdentifierHash: "same"}))

	err := s.Save(models.CompanyCredential{ID: 2, IdentifierHash: "same"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	c, ok, err := s.FindByHash("same")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.ID)

	exists, err := s.HashExists("other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLogins_SaveThenLoad(t *testing.T) {
	s := NewLogins(filepath.Join(t.TempDir(), "users.dat"), discardLogger())

	logins := []models.LoginCredential{
		{ID: 1, Username: "ana", PasswordHash: "h1"},
		{ID: 2, Username: "ivo", PasswordHash: "h2"},
		{ID: 3, Username: "mia", PasswordHash: "h3"},
	}
	for _, l := range logins {
		require.NoError(t, s.Save(l))
	}

	got, err := s.FindAll()
	require.NoError(t, err)
	assert.Equal(t, logins, got)

	byID, err := s.FindByID(2)
	require.NoError(t, err)
	assert.Equal(t, "ivo", byID.Username)

	_, err = s.FindByID(9)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLogins_UsernamesUnique(t *testing.T) {
	s := NewLogins(filepath.Join(t.TempDir(), "users.dat"), discardLogger())
	require.NoError(t, s.Save(models.LoginCredential{ID: 1, Username: "ana", PasswordHash: "x"}))

	err := s.Save(models.LoginCredential{ID: 2, Username: "ana", PasswordHash: "y"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	exists, err := s.UsernameExists("ana")
	require.NoError(t, err)
	assert.True(t, exists)

	all, err := s.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLogins_CorruptFileIsStorageError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.dat")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o600))
	s := NewLogins(path, discardLogger())

	_, err := s.FindAll()
	assert.True(t, store.IsStorageError(err))

	// A save must not overwrite what it could not read.
	err = s.Save(models.LoginCredential{ID: 1, Username: "ana", PasswordHash: "x"})
	assert.Error(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not a gob stream", string(data))
}

func TestReadRecords_TruncatedStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.dat")
	require.NoError(t, WriteRecords(path, []models.LoginCredential{
		{ID: 1, Username: "ana", PasswordHash: "x"},
		{ID: 2, Username: "ivo", PasswordHash: "y"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-3], 0o600))

	got, err := ReadRecords[models.LoginCredential](path)
	assert.Error(t, err)
	assert.Len(t, got, 1, "records before the damage are still returned")
}
