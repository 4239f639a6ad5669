package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hasisahr/csmt/internal/ui"
)

// NewChangesCommand creates the changes command.
func NewChangesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "changes",
		Short: "Show the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			changes, err := a.svc.Changes()
			if err != nil {
				return describe(err)
			}
			return RenderChanges(cmd.OutOrStdout(), changes)
		},
	}
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	id := &IdentityOptions{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse open tasks and the audit log in a terminal UI",
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

			p := tea.NewProgram(ui.NewApp(a.svc, e), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return WrapExitError(ExitCommandError, "terminal UI failed", err)
			}
			return nil
		},
	}
	addIdentityFlags(cmd, id)
	return cmd
}
