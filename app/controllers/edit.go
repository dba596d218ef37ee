package controllers

import (
	"context"

	"todo-client/app/models"
)

// EditForm holds an in-progress edit of one task. A failed submit leaves the
// form open with the values the user entered.
type EditForm struct {
	TaskID   int64
	Title    string
	Priority models.Priority

	original models.Task
	open     bool
	err      error
}

// BeginEdit opens a form prefilled from t.
func (c *TaskController) BeginEdit(t models.Task) *EditForm {
	return &EditForm{
		TaskID:   t.ID,
		Title:    t.Title,
		Priority: t.Priority,
		original: t,
		open:     true,
	}
}

// Open reports whether the form is still being edited.
func (f *EditForm) Open() bool {
	return f.open
}

// Err returns the error of the last failed submit.
func (f *EditForm) Err() error {
	return f.err
}

// Cancel closes the form without sending anything.
func (f *EditForm) Cancel() {
	f.open = false
}

// Update returns the fields that differ from the task the form was opened on.
func (f *EditForm) Update() models.TaskUpdate {
	var u models.TaskUpdate
	if f.Title != f.original.Title {
		title := f.Title
		u.Title = &title
	}
	if f.Priority != f.original.Priority {
		priority := f.Priority
		u.Priority = &priority
	}
	return u
}

// SubmitEdit sends the changed fields. The form closes once the server has
// accepted the update, even if the refetch that follows fails.
func (c *TaskController) SubmitEdit(ctx context.Context, f *EditForm) error {
	if !f.open {
		return nil
	}
	update := f.Update()
	if update.Empty() {
		f.open = false
		f.err = nil
		return nil
	}
	err := c.Update(ctx, f.TaskID, update)
	if err != nil && !IsAction(err, ActionLoad) {
		f.err = err
		return err
	}
	f.open = false
	f.err = nil
	return err
}
