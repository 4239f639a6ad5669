package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasisahr/csmt/internal/auth"
	"github.com/hasisahr/csmt/internal/lifecycle"
	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/service"
	"github.com/hasisahr/csmt/internal/store"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "csmt", cmd.Use)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"},
		{"company", "register"},
		{"employee", "register"},
		{"login"},
		{"task", "create"},
		{"task", "assign"},
		{"task", "complete"},
		{"task", "list"},
		{"task", "assignable"},
		{"message", "create"},
		{"message", "list"},
		{"changes"},
		{"browse"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestIdentityFlags(t *testing.T) {
	cmd := NewRootCommand()
	createCmd, _, err := cmd.Find([]string{"task", "create"})
	require.NoError(t, err)

	userFlag := createCmd.Flags().Lookup("user")
	require.NotNil(t, userFlag)
	assert.Equal(t, "u", userFlag.Shorthand)
	require.NotNil(t, createCmd.Flags().Lookup("password"))
	require.NotNil(t, createCmd.Flags().Lookup("due"))
}

func TestRenderChanges_Golden(t *testing.T) {
	at := time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)
	changes := []models.Change{
		{
			Field:     service.FieldCompanyRegistered,
			After:     "Company:1 Acme",
			ActorName: "registration",
			At:        at,
		},
		{
			Field:     service.FieldTaskAssigned,
			Before:    "EMPLOYEE_ID = null TaskCompletion = WAITING_ASSIGNMENT",
			After:     "EMPLOYEE_ID = 2 TaskCompletion = IN_PROGRESS",
			ActorRole: models.RoleProjectManager,
			ActorName: "Pia",
			At:        at.Add(90 * time.Minute),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderChanges(&buf, changes))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "changes", buf.Bytes())
}

func TestRenderTasks_Golden(t *testing.T) {
	tasks := []service.TaskView{
		{
			Task: models.Task{
				ID: 1, Name: "Report", Completion: models.InProgress,
				Due: time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC),
			},
			Priority: lifecycle.High,
			Assignee: "Ana",
		},
		{
			Task: models.Task{
				ID: 12, Name: "Plan", Completion: models.WaitingAssignment,
				Due: time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC),
			},
			Priority: lifecycle.Low,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTasks(&buf, tasks))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "tasks", buf.Bytes())
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChanges(&buf, nil))
	require.NoError(t, RenderTasks(&buf, nil))
	require.NoError(t, RenderMessages(&buf, nil))
	assert.Equal(t, "No changes recorded.\nNo open tasks.\nNo messages.\n", buf.String())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", &service.ValidationError{Problems: []string{"a", "b"}}, ExitFailure, "invalid input:\n  - a\n  - b"},
		{"credentials", auth.ErrCredentialMismatch, ExitFailure, "login failed: username or password is incorrect"},
		{"transition", fmt.Errorf("task 1: %w", lifecycle.ErrInvalidTransition), ExitFailure, "request rejected"},
		{"not found", fmt.Errorf("task 1: %w", store.ErrNotFound), ExitFailure, "request rejected"},
		{"storage", store.Wrap("insert task", errors.New("disk full")), ExitCommandError, "storage failure"},
		{"other", errors.New("boom"), ExitCommandError, "unexpected failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := describe(tt.err)
			assert.Equal(t, tt.code, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
	assert.NoError(t, describe(nil))
}

// runCLI executes one command line against the data directory dir
func runCLI(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", filepath.Join(dir, "missing.env"),
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CSMT_DATA_DIR", dir)
	t.Setenv("CSMT_LOG_LEVEL", "ERROR")
	t.Setenv("CSMT_PASSWORD", "")
	t.Setenv("CSMT_DB_URL", "")

	out, err := runCLI(t, dir, "", "company", "register", "--name", "Acme",
		"--identifier", "ACME-001", "--confirm-identifier", "ACME-001")
	require.NoError(t, err)
	assert.Equal(t, "Registered company \"Acme\" (id 1)\n", out)

	out, err = runCLI(t, dir, "", "employee", "register", "--name", "Pia", "--username", "pia",
		"--role", "project_manager", "--identifier", "ACME-001",
		"--password", "pw", "--confirm-password", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Registered Pia as PROJECT_MANAGER of Acme (id 1)\n", out)

	// secrets piped in order: password, repeat, business identifier
	out, err = runCLI(t, dir, "pw2\npw2\nACME-001\n", "employee", "register", "--name", "Ana",
		"--username", "ana", "--role", "TEAM_MEMBER")
	require.NoError(t, err)
	assert.Equal(t, "Registered Ana as TEAM_MEMBER of Acme (id 2)\n", out)

	out, err = runCLI(t, dir, "pw\n", "task", "create", "-u", "pia",
		"--title", "Report", "--description", "Q3 numbers", "--due", "2026-11-01")
	require.NoError(t, err)
	assert.Equal(t, "Created task 1 \"Report\" due 2026-11-01\n", out)

	out, err = runCLI(t, dir, "", "task", "assignable", "-u", "pia", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Report")
	assert.Contains(t, out, "2  Ana (0 open)")

	_, err = runCLI(t, dir, "", "task", "assign", "-u", "pia", "--password", "pw", "--task", "1", "--member", "2")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "", "task", "list", "-u", "ana", "--password", "pw2")
	require.NoError(t, err)
	assert.Contains(t, out, "IN_PROGRESS")
	assert.Contains(t, out, "Report")

	_, err = runCLI(t, dir, "", "task", "complete", "-u", "pia", "--password", "pw", "--task", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "not a team member")

	_, err = runCLI(t, dir, "", "task", "complete", "-u", "ana", "--password", "pw2", "--task", "1")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "", "login", "-u", "ana", "--password", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "login failed")

	_, err = runCLI(t, dir, "", "message", "create", "-u", "pia", "--password", "pw",
		"--title", "Done", "--content", "thanks", "--task", "1")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "", "message", "list", "-u", "ana", "--password", "pw2")
	require.NoError(t, err)
	assert.Contains(t, out, "Done (by Pia)")
	assert.Contains(t, out, "task: #1 Report")

	out, err = runCLI(t, dir, "", "changes")
	require.NoError(t, err)
	for _, field := range []string{
		service.FieldCompanyRegistered,
		service.FieldEmployeeRegistered,
		service.FieldTaskCreated,
		service.FieldTaskAssigned,
		service.FieldTaskCompleted,
		service.FieldMessageCreated,
	} {
		assert.Contains(t, out, field)
	}
}
