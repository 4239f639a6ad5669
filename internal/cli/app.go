package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hasisahr/csmt/internal/audit"
	"github.com/hasisahr/csmt/internal/config"
	"github.com/hasisahr/csmt/internal/db"
	"github.com/hasisahr/csmt/internal/files"
	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/service"
)

// app is everything a command needs once configuration is resolved
type app struct {
	cfg config.Config
	log *slog.Logger
	db  *db.DB
	svc *service.Service
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Error("error closing database", "error", err)
	}
}

// open loads configuration, connects the stores and builds the service
func (o *RootOptions) open(cmd *cobra.Command) (*app, error) {
	if err := config.LoadDotEnv(o.EnvFile); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load env file", err)
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	level := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	log.Debug("opening database", "driver", cfg.Database.Driver, "data_dir", cfg.DataDir)
	database, err := db.Connect(cfg.Database, log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	svc := service.New(service.Deps{
		DB:        database,
		Companies: files.NewCompanyCredentials(cfg.Files.Companies, log),
		Logins:    files.NewLogins(cfg.Files.Logins, log),
		Changes:   audit.New(cfg.Files.Changes, log),
		Log:       log,
	})
	return &app{cfg: cfg, log: log, db: database, svc: svc}, nil
}

// readSecret returns value when set, otherwise prompts without echo on a
// terminal or reads one line from piped input.
func (o *RootOptions) readSecret(cmd *cobra.Command, prompt, value string) (string, error) {
	if value != "" {
		return value, nil
	}

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(prompt, ": "), err)
		}
		return string(b), nil
	}

	if o.stdin == nil {
		o.stdin = bufio.NewReader(cmd.InOrStdin())
	}
	line, err := o.stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(prompt, ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// IdentityOptions names the employee a command acts as
type IdentityOptions struct {
	User     string
	Password string
}

func addIdentityFlags(cmd *cobra.Command, id *IdentityOptions) {
	cmd.Flags().StringVarP(&id.User, "user", "u", "", "username to act as (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&id.Password, "password", os.Getenv("CSMT_PASSWORD"), "password (prompted when empty)")
}

// login authenticates the acting employee
func (o *RootOptions) login(cmd *cobra.Command, a *app, id *IdentityOptions) (models.Employee, error) {
	password, err := o.readSecret(cmd, "Password: ", id.Password)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read password", err)
	}
	e, err := a.svc.Login(id.User, password)
	if err != nil {
		return nil, describe(err)
	}
	return e, nil
}

func (o *RootOptions) manager(cmd *cobra.Command, a *app, id *IdentityOptions) (*models.ProjectManager, error) {
	e, err := o.login(cmd, a, id)
	if err != nil {
		return nil, err
	}
	pm, ok := e.(*models.ProjectManager)
	if !ok {
		return nil, NewExitError(ExitFailure, fmt.Sprintf("%s is not a project manager", id.User))
	}
	return pm, nil
}

func (o *RootOptions) member(cmd *cobra.Command, a *app, id *IdentityOptions) (*models.TeamMember, error) {
	e, err := o.login(cmd, a, id)
	if err != nil {
		return nil, err
	}
	tm, ok := e.(*models.TeamMember)
	if !ok {
		return nil, NewExitError(ExitFailure, fmt.Sprintf("%s is not a team member", id.User))
	}
	return tm, nil
}
