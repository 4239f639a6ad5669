package files

import (
	"fmt"
	"log/slog"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

var _ store.Repository[models.LoginCredential] = (*Logins)(nil)

// Logins stores login credentials as a gob record stream, kept apart from
// the business data in the relational store. Every save rewrites the file.
type Logins struct {
	path string
	log  *slog.Logger
}

// NewLogins opens the login file at path. The file is created on first save.
func NewLogins(path string, log *slog.Logger) *Logins {
	return &Logins{path: path, log: log}
}

// FindAll decodes every stored credential
func (s *Logins) FindAll() ([]models.LoginCredential, error) {
	logins, err := ReadRecords[models.LoginCredential](s.path)
	if err != nil {
		return nil, store.Wrap("read logins", err)
	}
	s.log.Debug("logins loaded", "path", s.path, "records", len(logins))
	return logins, nil
}

// FindByID returns the credential of employee id, or ErrNotFound
func (s *Logins) FindByID(id int64) (models.LoginCredential, error) {
	logins, err := s.FindAll()
	if err != nil {
		return models.LoginCredential{}, err
	}
	for _, l := range logins {
		if l.ID == id {
			return l, nil
		}
	}
	return models.LoginCredential{}, fmt.Errorf("login %d: %w", id, store.ErrNotFound)
}

// FindByUsername looks a credential up by its unique username
func (s *Logins) FindByUsername(username string) (models.LoginCredential, bool, error) {
	logins, err := s.FindAll()
	if err != nil {
		return models.LoginCredential{}, false, err
	}
	for _, l := range logins {
		if l.Username == username {
			return l, true, nil
		}
	}
	return models.LoginCredential{}, false, nil
}

// UsernameExists reports whether username is taken
func (s *Logins) UsernameExists(username string) (bool, error) {
	_, ok, err := s.FindByUsername(username)
	return ok, err
}

// Save loads all credentials, appends login and rewrites the file
func (s *Logins) Save(login models.LoginCredential) error {
	if login.ID <= 0 || login.Username == "" {
		return fmt.Errorf("login %q: %w", login.Username, store.ErrInvalidRecord)
	}

	logins, err := s.FindAll()
	if err != nil {
		return err
	}
	for _, l := range logins {
		if l.Username == login.Username {
			return fmt.Errorf("username %q: %w", login.Username, store.ErrDuplicate)
		}
	}
	logins = append(logins, login)

	if err := WriteRecords(s.path, logins); err != nil {
		return store.Wrap("write logins", err)
	}
	s.log.Debug("login saved", "employee_id", login.ID, "records", len(logins))
	return nil
}
