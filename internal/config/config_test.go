package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOnly(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CSMT_DATA_DIR", dir)
	t.Setenv("CSMT_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, filepath.Join(dir, "csmt.db"), cfg.Database.URL)
	assert.Equal(t, filepath.Join(dir, "companies.txt"), cfg.Files.Companies)
	assert.Equal(t, filepath.Join(dir, "users.dat"), cfg.Files.Logins)
	assert.Equal(t, filepath.Join(dir, "changes.dat"), cfg.Files.Changes)
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CSMT_DATA_DIR", dir)
	t.Setenv("CSMT_DB_USER", "csmt")

	cfg, err := Load(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "csmt", cfg.Database.User)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "csmt.yaml")
	yaml := `log_level: WARN
data_dir: ` + dir + `
database:
  driver: pgx
  url: postgres://localhost:5432/csmt
files:
  logins: /var/lib/csmt/users.dat
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost:5432/csmt", cfg.Database.URL)
	assert.Equal(t, "/var/lib/csmt/users.dat", cfg.Files.Logins)
	assert.Equal(t, filepath.Join(dir, "companies.txt"), cfg.Files.Companies)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")), "missing file is fine")

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CSMT_DB_PASSWORD=s3cret\n"), 0o600))
	t.Setenv("CSMT_DB_PASSWORD", "")
	require.NoError(t, os.Unsetenv("CSMT_DB_PASSWORD"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "s3cret", os.Getenv("CSMT_DB_PASSWORD"))
}

func TestLevel_UnknownIsInfo(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "loud"}.Level())
	assert.Equal(t, slog.LevelError, Config{LogLevel: "error"}.Level())
}
