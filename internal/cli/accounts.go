package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/service"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database:  %s (%s)\n", a.cfg.Database.URL, a.cfg.Database.Driver)
			fmt.Fprintf(out, "companies: %s\n", a.cfg.Files.Companies)
			fmt.Fprintf(out, "logins:    %s\n", a.cfg.Files.Logins)
			fmt.Fprintf(out, "changes:   %s\n", a.cfg.Files.Changes)
			return nil
		},
	}
}

// CompanyOptions holds flags for company registration.
type CompanyOptions struct {
	*RootOptions
	Name              string
	Identifier        string
	ConfirmIdentifier string
}

// NewCompanyCommand creates the company command group.
func NewCompanyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage companies",
	}
	cmd.AddCommand(newCompanyRegisterCommand(rootOpts))
	return cmd
}

func newCompanyRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompanyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a company",
		Long: `Register a company under a secret business identifier.

Employees join the company by giving the same identifier when they
register. The identifier is prompted for twice when not passed as flags.

Examples:
  csmt company register --name Acme
  csmt company register --name Acme --identifier ACME-001 --confirm-identifier ACME-001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompanyRegister(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "company name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.Identifier, "identifier", "", "business identifier")
	cmd.Flags().StringVar(&opts.ConfirmIdentifier, "confirm-identifier", "", "business identifier again")

	return cmd
}

func runCompanyRegister(opts *CompanyOptions, cmd *cobra.Command) error {
	a, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	identifier, err := opts.readSecret(cmd, "Business identifier: ", opts.Identifier)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read identifier", err)
	}
	confirm, err := opts.readSecret(cmd, "Repeat business identifier: ", opts.ConfirmIdentifier)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read identifier", err)
	}

	c, err := a.svc.RegisterCompany(opts.Name, identifier, confirm)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered company %q (id %d)\n", c.Name, c.ID)
	return nil
}

// EmployeeOptions holds flags for employee registration.
type EmployeeOptions struct {
	*RootOptions
	Name            string
	Username        string
	Role            string
	Identifier      string
	Password        string
	ConfirmPassword string
}

// NewEmployeeCommand creates the employee command group.
func NewEmployeeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Manage employees",
	}
	cmd.AddCommand(newEmployeeRegisterCommand(rootOpts))
	return cmd
}

func newEmployeeRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmployeeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an employee in a company",
		Long: `Register a project manager or team member.

The company is found by its business identifier. Secrets not passed as
flags are prompted for.

Examples:
  csmt employee register --name "Ana Horvat" --username ana --role TEAM_MEMBER`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmployeeRegister(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "full name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.Username, "username", "", "login name (required)")
	_ = cmd.MarkFlagRequired("username")
	cmd.Flags().StringVar(&opts.Role, "role", "", "PROJECT_MANAGER or TEAM_MEMBER (required)")
	_ = cmd.MarkFlagRequired("role")
	cmd.Flags().StringVar(&opts.Identifier, "identifier", "", "business identifier of the company")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password")
	cmd.Flags().StringVar(&opts.ConfirmPassword, "confirm-password", "", "password again")

	return cmd
}

func runEmployeeRegister(opts *EmployeeOptions, cmd *cobra.Command) error {
	a, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	req := service.EmployeeRegistration{
		Name:     opts.Name,
		Username: opts.Username,
		Role:     models.Role(strings.ToUpper(opts.Role)),
	}
	for _, s := range []struct {
		prompt string
		flag   string
		dst    *string
	}{
		{"Password: ", opts.Password, &req.Password},
		{"Repeat password: ", opts.ConfirmPassword, &req.ConfirmPassword},
		{"Business identifier: ", opts.Identifier, &req.BusinessIdentifier},
	} {
		v, err := opts.readSecret(cmd, s.prompt, s.flag)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read secret", err)
		}
		*s.dst = v
	}

	e, err := a.svc.RegisterEmployee(req)
	if err != nil {
		return describe(err)
	}
	info := e.Info()
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s of %s (id %d)\n", info.Name, info.Role, info.Employer.Name, info.ID)
	return nil
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	id := &IdentityOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials and show who you are",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := rootOpts.login(cmd, a, id)
			if err != nil {
				return err
			}
			info := e.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s) at %s\n", info.Name, info.Role, info.Employer.Name)
			return nil
		},
	}
	addIdentityFlags(cmd, id)
	return cmd
}
