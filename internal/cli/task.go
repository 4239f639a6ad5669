package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hasisahr/csmt/internal/models"
	"github.com/hasisahr/csmt/internal/service"
)

// TaskOptions holds flags for the task commands.
type TaskOptions struct {
	*RootOptions
	Identity IdentityOptions

	Title       string
	Description string
	Due         string
	TaskID      int64
	MemberID    int64
}

// NewTaskCommand creates the task command group.
func NewTaskCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, assign, complete and list tasks",
	}
	cmd.AddCommand(newTaskCreateCommand(rootOpts))
	cmd.AddCommand(newTaskAssignCommand(rootOpts))
	cmd.AddCommand(newTaskCompleteCommand(rootOpts))
	cmd.AddCommand(newTaskListCommand(rootOpts))
	cmd.AddCommand(newTaskAssignableCommand(rootOpts))
	return cmd
}

func newTaskCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task (project managers)",
		Long: `Create a task waiting for assignment in your company.

Examples:
  csmt task create -u pia --title "Q3 report" --description "numbers" --due 2026-11-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := time.Parse(models.DateLayout, opts.Due)
			if err != nil {
				return WrapExitError(ExitFailure, "due date must be YYYY-MM-DD", err)
			}

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			pm, err := opts.manager(cmd, a, &opts.Identity)
			if err != nil {
				return err
			}
			t, err := a.svc.CreateTask(pm, opts.Title, opts.Description, due)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d %q due %s\n", t.ID, t.Name, t.Due.Format(models.DateLayout))
			return nil
		},
	}

	addIdentityFlags(cmd, &opts.Identity)
	cmd.Flags().StringVar(&opts.Title, "title", "", "task name (required)")
	_ = cmd.MarkFlagRequired("title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "task description (required)")
	_ = cmd.MarkFlagRequired("description")
	cmd.Flags().StringVar(&opts.Due, "due", "", "due date YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

func newTaskAssignCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a waiting task to a team member (project managers)",
		Args:  cobra.NoArgs,
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
			if err := a.svc.AssignTask(pm, opts.TaskID, opts.MemberID); err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned task %d to employee %d\n", opts.TaskID, opts.MemberID)
			return nil
		},
	}

	addIdentityFlags(cmd, &opts.Identity)
	cmd.Flags().Int64Var(&opts.TaskID, "task", 0, "task id (required)")
	_ = cmd.MarkFlagRequired("task")
	cmd.Flags().Int64Var(&opts.MemberID, "member", 0, "team member id (required)")
	_ = cmd.MarkFlagRequired("member")

	return cmd
}

func newTaskCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Mark one of your tasks as finished (team members)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tm, err := opts.member(cmd, a, &opts.Identity)
			if err != nil {
				return err
			}
			if err := a.svc.CompleteTask(tm, opts.TaskID); err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed task %d\n", opts.TaskID)
			return nil
		},
	}

	addIdentityFlags(cmd, &opts.Identity)
	cmd.Flags().Int64Var(&opts.TaskID, "task", 0, "task id (required)")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

func newTaskListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Long: `List open tasks with their priority.

Team members see the tasks assigned to them, project managers see every
open task of their company.`,
		Args: cobra.NoArgs,
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

			var tasks []service.TaskView
			if tm, ok := e.(*models.TeamMember); ok {
				tasks, err = a.svc.MemberTasks(tm)
			} else {
				tasks, err = a.svc.CompanyTasks(e)
			}
			if err != nil {
				return describe(err)
			}
			return RenderTasks(cmd.OutOrStdout(), tasks)
		},
	}

	addIdentityFlags(cmd, &opts.Identity)
	return cmd
}

func newTaskAssignableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assignable",
		Short: "Show waiting tasks and members who can take them (project managers)",
		Args:  cobra.NoArgs,
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
			view, err := a.svc.AssignableView(pm)
			if err != nil {
				return describe(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Waiting tasks:")
			if err := RenderTasks(out, view.Waiting); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nEligible team members:")
			if len(view.Eligible) == 0 {
				fmt.Fprintln(out, "  none")
			}
			for _, m := range view.Eligible {
				fmt.Fprintf(out, "  %d  %s (%d open)\n", m.ID, m.Name, len(m.Tasks))
			}
			if len(view.NearCapacity) > 0 {
				fmt.Fprintln(out, "\nWarning, these employees already have 2 tasks assigned:")
				for _, m := range view.NearCapacity {
					fmt.Fprintf(out, "  %s\n", m.Name)
				}
			}
			return nil
		},
	}

	addIdentityFlags(cmd, &opts.Identity)
	return cmd
}
