package models

import "math"

// Progress summarises the direct children of a parent task.
type Progress struct {
	Total      int
	Completed  int
	Percentage int
}

// NewProgress computes the percentage as round(100 * completed / total).
func NewProgress(total, completed int) Progress {
	p := Progress{Total: total, Completed: completed}
	if total > 0 {
		p.Percentage = int(math.Round(100 * float64(completed) / float64(total)))
	}
	return p
}

// Summarize computes progress over a fetched set of subtasks.
func Summarize(subtasks []Task) (Progress, bool) {
	if len(subtasks) == 0 {
		return Progress{}, false
	}
	completed := 0
	for _, t := range subtasks {
		if t.Completed {
			completed++
		}
	}
	return NewProgress(len(subtasks), completed), true
}
