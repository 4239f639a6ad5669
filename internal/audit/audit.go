// Package audit keeps the append-only change log.
//
// The log is a single file holding a gob record stream of models.Change.
// Every operation holds one exclusivity token for its whole duration, so at
// most one reader or writer touches the file at a time:
//
//   - Append: acquire, load all records, append one, rewrite the file, release
//   - ReadAll: acquire, load all records, release
//
// Readers share the token with writers; there are no concurrent readers.
// Waiting callers block without timeout and are woken in no particular
// order, so a caller can in principle starve. Exclusivity is in-process
// only: two processes writing the same file are not coordinated.
package audit

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hasisahr/csmt/internal/files"
	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/store"
)

// Log is the file-backed change log. The zero value is not usable; use New.
type Log struct {
	path string
	log  *slog.Logger

	mu sync.Mutex // exclusivity token for all file I/O
}

// New returns a log stored at path. The file is created on first append.
func New(path string, log *slog.Logger) *Log {
	return &Log{path: path, log: log}
}

// Path returns the file backing the log
func (l *Log) Path() string { return l.path }

// Append records change after every record already in the log. If the
// existing log cannot be read it is left untouched and the change is
// dropped; the failure is logged and returned.
func (l *Log) Append(change models.Change) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	changes, err := files.ReadRecords[models.Change](l.path)
	if err != nil {
		l.log.Error("audit append dropped: existing log unreadable",
			"path", l.path,
			"field", change.Field,
			"change_id", change.ID,
			"error", err,
		)
		return store.Wrap("read audit log", err)
	}

	changes = append(changes, change)
	if err := files.WriteRecords(l.path, changes); err != nil {
		l.log.Error("audit append dropped: write failed",
			"path", l.path,
			"field", change.Field,
			"change_id", change.ID,
			"error", err,
		)
		return store.Wrap("write audit log", err)
	}

	l.log.Debug("change recorded",
		"field", change.Field,
		"actor", change.ActorName,
		"records", len(changes),
	)
	return nil
}

// ReadAll returns every change in append order. On a read failure it logs
// and returns an empty sequence together with the error.
func (l *Log) ReadAll() ([]models.Change, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	changes, err := files.ReadRecords[models.Change](l.path)
	if err != nil {
		l.log.Error("audit log unreadable", "path", l.path, "error", err)
		return []models.Change{}, store.Wrap("read audit log", err)
	}
	if changes == nil {
		changes = []models.Change{}
	}
	return changes, nil
}

// Record builds a change stamped now and appends it
func (l *Log) Record(field, before, after string, role models.Role, actor string) error {
	if err := l.Append(models.NewChange(field, before, after, role, actor)); err != nil {
		return fmt.Errorf("record %q: %w", field, err)
	}
	return nil
}
