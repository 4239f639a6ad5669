package cli

import (
	"bufio"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/hasisahr/csmt/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	Verbose    bool

	stdin *bufio.Reader // shared so piped secrets are read in order
}

// NewRootCommand creates the root command for the csmt CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "csmt",
		Short: "Company staff and task management",
		Long: `csmt keeps companies, their employees, tasks and messages.

Project managers create and assign tasks, team members complete them,
and every change is written to an audit log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config",
		filepath.Join(xdg.ConfigHome, config.AppName, "config.yaml"), "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewCompanyCommand(opts))
	cmd.AddCommand(NewEmployeeCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewTaskCommand(opts))
	cmd.AddCommand(NewMessageCommand(opts))
	cmd.AddCommand(NewChangesCommand(opts))
	cmd.AddCommand(NewBrowseCommand(opts))

	return cmd
}
