package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MessageOptions holds flags for the message commands.
type MessageOptions struct {
	*RootOptions
	Identity IdentityOptions

	Title   string
	Content string
	TaskID  int64
}

// NewMessageCommand creates the message command group.
func NewMessageCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Post and read company messages",
	}
	cmd.AddCommand(newMessageCreateCommand(rootOpts))
	cmd.AddCommand(newMessageListCommand(rootOpts))
	return cmd
}

func newMessageCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MessageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a message to your company (project managers)",
		Long: `Post a message, optionally about one task.

Examples:
  csmt message create -u pia --title Standup --content "10am in room 2"
  csmt message create -u pia --title Report --content "due Friday" --task 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			pm, err := opts.manager(cmd, a, &opts.Identity)
			if err != nil {
				return err
			}
			m, err := a.svc.CreateMessage(pm, opts.Title, opts.Content, opts.TaskID)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted message %d %q\n", m.ID, m.Title)
			return nil
		},
	}

	addIdentityFlags(cmd, &opts.Identity)
	cmd.Flags().StringVar(&opts.Title, "title", "", "message title (required)")
	_ = cmd.MarkFlagRequired("title")
	cmd.Flags().StringVar(&opts.Content, "content", "", "message text (required)")
	_ = cmd.MarkFlagRequired("content")
	cmd.Flags().Int64Var(&opts.TaskID, "task", 0, "id of the task the message is about")

	return cmd
}

func newMessageListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MessageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Read your company's messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := opts.login(cmd, a, &opts.Identity)
			if err != nil {
				return err
			}
			msgs, err := a.svc.Messages(e)
			if err != nil {
				return describe(err)
			}
			return RenderMessages(cmd.OutOrStdout(), msgs)
		},
	}

	addIdentityFlags(cmd, &opts.Identity)
	return cmd
}
