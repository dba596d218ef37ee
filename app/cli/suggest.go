package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"todo-client/app/models"
)

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var (
		selected   []int
		all        bool
		priorities []string
	)
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Show suggested tasks and add the chosen ones",
		Long: `Show suggested tasks. Every suggestion starts at medium priority.

Pass --select (1-based positions) or --all to add suggestions, and
--priority N=level to override the priority of suggestion N.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			tasks := a.rootController()
			list, err := tasks.LoadSuggestions(cmd.Context())
			if err != nil {
				return err
			}

			for _, override := range priorities {
				pos, level, ok := strings.Cut(override, "=")
				if !ok {
					return fmt.Errorf("invalid --priority %q, want N=level", override)
				}
				n, err := strconv.Atoi(pos)
				if err != nil {
					return fmt.Errorf("invalid --priority %q: %w", override, err)
				}
				p, err := models.ParsePriority(level)
				if err != nil {
					return err
				}
				if err := list.SetPriority(n-1, p); err != nil {
					return err
				}
			}
			if all {
				list.SelectAll()
			}
			for _, n := range selected {
				if err := list.Select(n-1, true); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if !all && len(selected) == 0 {
				if list.Len() == 0 {
					fmt.Fprintln(out, "No suggestions right now.")
					return nil
				}
				for i, s := range list.Items() {
					fmt.Fprintf(out, "%d. %s (%s)\n", i+1, s.Title, s.Priority)
				}
				return nil
			}

			created, err := tasks.AcceptSuggestions(cmd.Context(), list)
			for _, t := range created {
				fmt.Fprintf(out, "Created task %d: %s (%s)\n", t.ID, t.Title, t.Priority)
			}
			return err
		},
	}
	cmd.Flags().IntSliceVar(&selected, "select", nil, "positions of suggestions to add")
	cmd.Flags().BoolVar(&all, "all", false, "add every suggestion")
	cmd.Flags().StringSliceVar(&priorities, "priority", nil, "override a priority, e.g. 2=high")
	return cmd
}
