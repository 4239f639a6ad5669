package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// AppName names the data directory under the XDG data home
const AppName = "csmt"

type Config struct {
	LogLevel string   `yaml:"log_level" env:"CSMT_LOG_LEVEL" env-default:"INFO"`
	DataDir  string   `yaml:"data_dir" env:"CSMT_DATA_DIR"`
	Database Database `yaml:"database"`
	Files    Files    `yaml:"files"`
}

// Database holds the connection settings handed to db.Connect. User and
// Password are kept apart from URL so they can come from the environment.
type Database struct {
	Driver   string `yaml:"driver" env:"CSMT_DB_DRIVER" env-default:"sqlite3"`
	URL      string `yaml:"url" env:"CSMT_DB_URL"`
	User     string `yaml:"user" env:"CSMT_DB_USER"`
	Password string `yaml:"password" env:"CSMT_DB_PASSWORD"`
}

// Files locates the flat-file stores. Relative paths resolve against DataDir.
type Files struct {
	Companies string `yaml:"companies" env:"CSMT_COMPANIES_FILE" env-default:"companies.txt"`
	Logins    string `yaml:"logins" env:"CSMT_LOGINS_FILE" env-default:"users.dat"`
	Changes   string `yaml:"changes" env:"CSMT_CHANGES_FILE" env-default:"changes.dat"`
}

// Load reads configuration from the YAML file at path, falling back to the
// environment alone when path is empty or the file does not exist.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
		return cfg.withDefaults(), nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		cfg = Config{}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
	}
	return cfg.withDefaults(), nil
}

// LoadDotEnv exports the variables of a .env file without overriding ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(xdg.DataHome, AppName)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.URL == "" && c.Database.Driver == "sqlite3" {
		c.Database.URL = filepath.Join(c.DataDir, AppName+".db")
	}
	c.Files.Companies = c.resolve(c.Files.Companies, "companies.txt")
	c.Files.Logins = c.resolve(c.Files.Logins, "users.dat")
	c.Files.Changes = c.resolve(c.Files.Changes, "changes.dat")
	return c
}

func (c Config) resolve(p, def string) string {
	if p == "" {
		p = def
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// Level maps LogLevel onto a slog level. Unknown values mean INFO.
func (c Config) Level() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
