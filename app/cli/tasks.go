package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"todo-client/app/controllers"
	"todo-client/app/models"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List root tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := models.ParseFilter(filter)
			if err != nil {
				return err
			}
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			tasks := a.rootController()
			if err := tasks.Refresh(cmd.Context()); err != nil {
				return err
			}
			tasks.SetFilter(f)
			return printTasks(cmd.OutOrStdout(), opts.output, tasks.Visible())
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, pending or completed")
	return cmd
}

func newSubtasksCmd(opts *rootOptions) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "subtasks <task-id>",
		Short: "List the subtasks of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := models.ParseFilter(filter)
			if err != nil {
				return err
			}
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			parent, err := a.findTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			subtasks := controllers.NewSubtaskController(a.gateway, parent, a.log)
			if err := subtasks.Refresh(cmd.Context()); err != nil {
				return err
			}
			subtasks.SetFilter(f)
			if err := printTasks(cmd.OutOrStdout(), opts.output, subtasks.Visible()); err != nil {
				return err
			}
			if p, ok := subtasks.Progress(); ok && (opts.output == "table" || opts.output == "") {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %d of %d done (%d%%)\n", parent.Title, p.Completed, p.Total, p.Percentage)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, pending or completed")
	return cmd
}

func newTreeCmd(opts *rootOptions) *cobra.Command {
	var parallel, depth int
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show root tasks with their subtasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			roots := a.rootController()
			if err := roots.Refresh(cmd.Context()); err != nil {
				return err
			}
			nodes, err := controllers.NewTreeLoader(a.gateway, parallel, depth).Load(cmd.Context(), roots.Tasks())
			if err != nil {
				return err
			}
			return printTree(cmd.OutOrStdout(), opts.output, nodes)
		},
	}
	cmd.Flags().IntVar(&parallel, "parallel", 4, "subtask listings to run at once")
	cmd.Flags().IntVar(&depth, "depth", 0, "levels of subtasks to expand, 0 for all")
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	priority := models.PriorityMedium
	var parentID int64
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task, or a subtask with --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := models.ValidateTitle(args[0]); err != nil {
				return err
			}
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			tasks := a.rootController()
			if parentID != 0 {
				parent, err := a.findTask(cmd.Context(), parentID)
				if err != nil {
					return err
				}
				tasks = controllers.NewSubtaskController(a.gateway, parent, a.log)
			}
			created, err := tasks.Create(cmd.Context(), args[0], priority)
			if created == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d: %s\n", created.ID, created.Title)
			return err
		},
	}
	cmd.Flags().VarP(&priority, "priority", "p", "low, medium or high")
	cmd.Flags().Int64Var(&parentID, "parent", 0, "create as a subtask of this task")
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var title, priority string
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change a task's title or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			tasks, task, err := a.controllerFor(cmd.Context(), id)
			if err != nil {
				return err
			}
			form := tasks.BeginEdit(task)
			if cmd.Flags().Changed("title") {
				form.Title = title
			}
			if cmd.Flags().Changed("priority") {
				if form.Priority, err = models.ParsePriority(priority); err != nil {
					return err
				}
			}
			if err := tasks.SubmitEdit(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority: low, medium or high")
	return cmd
}

func newCompleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskAction(cmd, opts, args[0], func(c *controllers.TaskController, id int64) error {
				return c.Complete(cmd.Context(), id)
			}, "Completed task %d\n")
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskAction(cmd, opts, args[0], func(c *controllers.TaskController, id int64) error {
				return c.Delete(cmd.Context(), id)
			}, "Deleted task %d\n")
		},
	}
}

func runTaskAction(cmd *cobra.Command, opts *rootOptions, arg string, action func(*controllers.TaskController, int64) error, done string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	a, err := opts.app(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireLogin(cmd.Context()); err != nil {
		return err
	}

	tasks, _, err := a.controllerFor(cmd.Context(), id)
	if err != nil {
		return err
	}
	if err := action(tasks, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), done, id)
	return nil
}
