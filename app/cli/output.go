package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"todo-client/app/controllers"
	"todo-client/app/models"
)

type taskView struct {
	ID        int64      `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Priority  string     `json:"priority" yaml:"priority"`
	Completed bool       `json:"completed" yaml:"completed"`
	ParentID  *int64     `json:"parent_task_id,omitempty" yaml:"parent_task_id,omitempty"`
	Depth     int        `json:"depth" yaml:"depth"`
	Subtasks  int        `json:"subtask_count,omitempty" yaml:"subtask_count,omitempty"`
	Done      int        `json:"completed_subtask_count,omitempty" yaml:"completed_subtask_count,omitempty"`
	Progress  *int       `json:"completion_percentage,omitempty" yaml:"completion_percentage,omitempty"`
	CreatedAt string     `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Children  []taskView `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`
}

func newTaskView(t models.Task) taskView {
	v := taskView{
		ID:        t.ID,
		Title:     t.Title,
		Priority:  t.Priority.String(),
		Completed: t.Completed,
		ParentID:  t.ParentTaskID,
		Depth:     t.Depth,
	}
	if p, ok := t.Progress(); ok {
		pct := p.Percentage
		v.Subtasks, v.Done, v.Progress = p.Total, p.Completed, &pct
	}
	if !t.CreatedAt.IsZero() {
		v.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	return v
}

func newTreeView(nodes []*controllers.TaskNode) []taskView {
	views := make([]taskView, 0, len(nodes))
	for _, n := range nodes {
		v := newTaskView(n.Task)
		v.Children = newTreeView(n.Children)
		views = append(views, v)
	}
	return views
}

// render writes v as JSON or YAML. It reports false for the table format so
// the caller can print its own table.
func render(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, err
		}
		_, err = w.Write(data)
		return true, err
	case "table", "":
		return false, nil
	}
	return true, fmt.Errorf("unknown output format %q", format)
}

func printTasks(w io.Writer, format string, tasks []models.Task) error {
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, newTaskView(t))
	}
	if done, err := render(w, format, views); done {
		return err
	}
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tTITLE\tPROGRESS")
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.ID, status(v.Completed), v.Priority, v.Title, progressText(v))
	}
	return tw.Flush()
}

func printTree(w io.Writer, format string, nodes []*controllers.TaskNode) error {
	views := newTreeView(nodes)
	if done, err := render(w, format, views); done {
		return err
	}
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	var walk func(vs []taskView, indent int)
	walk = func(vs []taskView, indent int) {
		for _, v := range vs {
			fmt.Fprintf(w, "%s[%s] #%d %s (%s)", strings.Repeat("  ", indent), check(v.Completed), v.ID, v.Title, v.Priority)
			if p := progressText(v); p != "" {
				fmt.Fprintf(w, " %s", p)
			}
			fmt.Fprintln(w)
			walk(v.Children, indent+1)
		}
	}
	walk(views, 0)
	return nil
}

func status(completed bool) string {
	if completed {
		return "done"
	}
	return "pending"
}

func check(completed bool) string {
	if completed {
		return "x"
	}
	return " "
}

func progressText(v taskView) string {
	if v.Progress == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d (%d%%)", v.Done, v.Subtasks, *v.Progress)
}
