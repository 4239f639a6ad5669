package files

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

// linesPerCompany is the record width of the credentials file: id, then hash
const linesPerCompany = 2

var _ store.Repository[models.CompanyCredential] = (*CompanyCredentials)(nil)

// CompanyCredentials stores business identifier hashes in a text file, one
// record per two lines. Every save rewrites the whole file.
type CompanyCredentials struct {
	path string
	log  *slog.Logger
}

// NewCompanyCredentials opens the credentials file at path. The file is
// created on first save.
func NewCompanyCredentials(path string, log *slog.Logger) *CompanyCredentials {
	return &CompanyCredentials{path: path, log: log}
}

// FindAll reads every record. An odd trailing line is ignored.
func (s *CompanyCredentials) FindAll() ([]models.CompanyCredential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, store.Wrap("read company credentials", err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, store.Wrap("read company credentials", err)
	}

	if len(lines)%linesPerCompany != 0 {
		s.log.Warn("ignoring incomplete company credential record", "path", s.path, "lines", len(lines))
	}

	creds := make([]models.CompanyCredential, 0, len(lines)/linesPerCompany)
	for i := 0; i+1 < len(lines); i += linesPerCompany {
		id, err := strconv.ParseInt(strings.TrimSpace(lines[i]), 10, 64)
		if err != nil {
			return nil, store.Wrap("parse company credentials", fmt.Errorf("line %d: %w", i+1, err))
		}
		creds = append(creds, models.CompanyCredential{ID: id, IdentifierHash: lines[i+1]})
	}
	return creds, nil
}

// FindByID returns the credential of company id. Absence is an error, so
// callers expecting it should check first.
func (s *CompanyCredentials) FindByID(id int64) (models.CompanyCredential, error) {
	creds, err := s.FindAll()
	if err != nil {
		return models.CompanyCredential{}, err
	}
	for _, c := range creds {
		if c.ID == id {
			return c, nil
		}
	}
	return models.CompanyCredential{}, fmt.Errorf("company credential %d: %w", id, store.ErrNotFound)
}

// FindByHash resolves which company an identifier hash belongs to
func (s *CompanyCredentials) FindByHash(hash string) (models.CompanyCredential, bool, error) {
	creds, err := s.FindAll()
	if err != nil {
		return models.CompanyCredential{}, false, err
	}
	for _, c := range creds {
		if c.IdentifierHash == hash {
			return c, true, nil
		}
	}
	return models.CompanyCredential{}, false, nil
}

// HashExists reports whether an identifier hash is already taken
func (s *CompanyCredentials) HashExists(hash string) (bool, error) {
	_, ok, err := s.FindByHash(hash)
	return ok, err
}

// Save loads all records, appends cred and rewrites the file
func (s *CompanyCredentials) Save(cred models.CompanyCredential) error {
	if cred.ID <= 0 || cred.IdentifierHash == "" || strings.ContainsAny(cred.IdentifierHash, "\r\n") {
		return fmt.Errorf("company credential %d: %w", cred.ID, store.ErrInvalidRecord)
	}

	creds, err := s.FindAll()
	if err != nil {
		return err
	}
	for _, c := range creds {
		if c.IdentifierHash == cred.IdentifierHash {
			return fmt.Errorf("company identifier: %w", store.ErrDuplicate)
		}
	}
	creds = append(creds, cred)

	var b strings.Builder
	for _, c := range creds {
		fmt.Fprintf(&b, "%d\n%s\n", c.ID, c.IdentifierHash)
	}
	if err := writeFileAtomic(s.path, []byte(b.String()), 0o600); err != nil {
		return store.Wrap("write company credentials", err)
	}

	s.log.Debug("company credential saved", "company_id", cred.ID, "records", len(creds))
	return nil
}
