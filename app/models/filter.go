package models

import "fmt"

// Filter selects which tasks of a list are visible.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps a name onto a Filter. The empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPending, FilterCompleted:
		return Filter(s), nil
	}
	return "", fmt.Errorf("invalid filter %q", s)
}

// Match reports whether t is visible under f.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	}
	return true
}

// Apply returns the visible tasks in their original order. The input is not
// modified.
func (f Filter) Apply(tasks []Task) []Task {
	visible := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			visible = append(visible, t)
		}
	}
	return visible
}
