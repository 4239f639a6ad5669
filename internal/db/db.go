package db

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hasisahr/csmt/internal/config"
	"github.com/hasisahr/csmt/internal/store"
)

//go:embed schema.sql
var schema string

// sqlitePragmas are applied to every SQLite connection
const sqlitePragmas = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

// DB wraps the database connection
type DB struct {
	*sqlx.DB
	log *slog.Logger
}

// Connect opens the relational store described by cfg and initializes the
// schema. SQLite is the default; driver "pgx" selects PostgreSQL.
func Connect(cfg config.Database, log *slog.Logger) (*DB, error) {
	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, store.Wrap("connect", err)
	}

	conn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		log.Error("connection problem", "driver", driver, "error", err)
		return nil, store.Wrap("connect", err)
	}
	if driver == "sqlite3" {
		// a single writer avoids "database is locked"
		conn.SetMaxOpenConns(1)
	}

	db := &DB{DB: conn, log: log}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Debug("database ready", "driver", driver)
	return db, nil
}

// Open is Connect for a SQLite file at path
func Open(path string, log *slog.Logger) (*DB, error) {
	return Connect(config.Database{Driver: "sqlite3", URL: path}, log)
}

func dataSource(cfg config.Database) (driver, dsn string, err error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		dsn, err := sqliteDSN(cfg.URL)
		return "sqlite3", dsn, err
	case "pgx", "postgres", "postgresql":
		dsn, err := postgresDSN(cfg)
		return "pgx", dsn, err
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite database path is empty")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", err
		}
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqlitePragmas, nil
}

// postgresDSN merges the externally supplied user and password into the URL
func postgresDSN(cfg config.Database) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("postgres database url is empty")
	}
	if cfg.User == "" {
		return cfg.URL, nil
	}

	if !strings.Contains(cfg.URL, "://") {
		// keyword/value form
		return fmt.Sprintf("%s user=%s password=%s", cfg.URL, quoteDSNValue(cfg.User), quoteDSNValue(cfg.Password)), nil
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	u.User = url.UserPassword(cfg.User, cfg.Password)
	return u.String(), nil
}

// quoteDSNValue quotes v for a keyword/value connection string: single
// quotes around, with backslash and quote escaped.
func quoteDSNValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (db *DB) initSchema() error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return store.Wrap("init schema", err)
		}
	}
	return nil
}
