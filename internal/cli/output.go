package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hasisahr/csmt/internal/auth"
	"github.com/hasisahr/csmt/internal/lifecycle"
	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/service"
	"github.com/hasisahr/csmt/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Request rejected (invalid input, wrong credentials, illegal transition)
	ExitCommandError = 2 // Storage or configuration failure
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// describe turns a service error into what the user is told. Storage
// failures stay generic; rejected requests say why.
func describe(err error) error {
	if err == nil {
		return nil
	}

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return NewExitError(ExitFailure, "invalid input:\n  - "+strings.Join(verr.Problems, "\n  - "))
	case errors.Is(err, auth.ErrCredentialMismatch):
		return NewExitError(ExitFailure, "login failed: username or password is incorrect")
	case store.IsStorageError(err):
		return WrapExitError(ExitCommandError, "storage failure", err)
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrNotEligible),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrDuplicate):
		return WrapExitError(ExitFailure, "request rejected", err)
	default:
		return WrapExitError(ExitCommandError, "unexpected failure", err)
	}
}

// RenderChanges writes the audit log as text, oldest first
func RenderChanges(w io.Writer, changes []models.Change) error {
	if len(changes) == 0 {
		_, err := fmt.Fprintln(w, "No changes recorded.")
		return err
	}
	for i, c := range changes {
		by := c.ActorName
		if c.ActorRole != "" {
			by = fmt.Sprintf("%s (%s)", c.ActorName, c.ActorRole)
		}
		if _, err := fmt.Fprintf(w, "#%d %s %s\n   by:     %s\n   before: %s\n   after:  %s\n",
			i+1, c.At.UTC().Format("2006-01-02 15:04"), c.Field, by, orNone(c.Before), orNone(c.After)); err != nil {
			return err
		}
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// RenderTasks writes tasks as an aligned table
func RenderTasks(w io.Writer, tasks []service.TaskView) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No open tasks.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRIORITY\tDUE\tSTATE\tASSIGNEE\tNAME")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Priority, t.Due.Format(models.DateLayout), t.Completion, t.Assignee, t.Name)
	}
	return tw.Flush()
}

// RenderMessages writes messages oldest first
func RenderMessages(w io.Writer, msgs []models.Message) error {
	if len(msgs) == 0 {
		_, err := fmt.Fprintln(w, "No messages.")
		return err
	}
	for _, m := range msgs {
		author := "unknown"
		if m.Author != nil {
			author = m.Author.Name
		}
		fmt.Fprintf(w, "%s  %s (by %s)\n", m.CreatedOn.Format(models.DateLayout), m.Title, author)
		fmt.Fprintf(w, "  %s\n", m.Content)
		if t, ok := m.Related.Task(); ok {
			fmt.Fprintf(w, "  task: #%d %s\n", t.ID, t.Name)
		} else if m.Related.Present() {
			fmt.Fprintf(w, "  task: #%d (unavailable)\n", m.Related.ID())
		}
	}
	return nil
}
