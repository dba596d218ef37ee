package controllers

import (
	"context"
	"fmt"

	"todo-client/app/models"
)

// SuggestionList holds suggested titles while the user picks which to add
// and at what priority.
type SuggestionList struct {
	items []models.Suggestion
}

// LoadSuggestions fetches suggestions and gives each the default priority.
func (c *TaskController) LoadSuggestions(ctx context.Context) (*SuggestionList, error) {
	titles, err := c.gw.SuggestedTasks(ctx)
	if err != nil {
		return nil, &ActionError{Action: ActionSuggest, Err: err}
	}
	list := &SuggestionList{items: make([]models.Suggestion, 0, len(titles))}
	for _, title := range titles {
		list.items = append(list.items, models.Suggestion{Title: title, Priority: models.DefaultPriority})
	}
	return list, nil
}

// Items returns a copy of the suggestions.
func (l *SuggestionList) Items() []models.Suggestion {
	return append([]models.Suggestion(nil), l.items...)
}

func (l *SuggestionList) Len() int {
	return len(l.items)
}

// SetPriority overrides the priority of suggestion i.
func (l *SuggestionList) SetPriority(i int, p models.Priority) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("suggestion %d out of range", i)
	}
	if !p.Valid() {
		return &models.ValidationError{Field: "priority", Message: "priority must be low, medium or high"}
	}
	l.items[i].Priority = p
	return nil
}

// Select marks suggestion i for creation, or unmarks it.
func (l *SuggestionList) Select(i int, selected bool) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("suggestion %d out of range", i)
	}
	l.items[i].Selected = selected
	return nil
}

// SelectAll marks every suggestion.
func (l *SuggestionList) SelectAll() {
	for i := range l.items {
		l.items[i].Selected = true
	}
}

// AcceptSuggestions creates the selected suggestions in this list and then
// refetches once. Creation stops at the first failure.
func (c *TaskController) AcceptSuggestions(ctx context.Context, l *SuggestionList) ([]models.Task, error) {
	var created []models.Task
	var drafts []models.TaskDraft
	for _, s := range l.items {
		if !s.Selected {
			continue
		}
		draft := models.TaskDraft{Title: s.Title, Priority: s.Priority, Parent: c.parent}
		if err := draft.Validate(); err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	key := actionKey(ActionCreate, 0)
	if !c.begin(key) {
		return nil, ErrActionInFlight
	}
	defer c.end(key)

	var createErr error
	for _, d := range drafts {
		t, err := c.gw.CreateTask(ctx, d.Request())
		if err != nil {
			createErr = &ActionError{Action: ActionCreate, Err: err}
			break
		}
		created = append(created, *t)
	}

	if len(created) > 0 {
		if err := c.Refresh(ctx); err != nil && createErr == nil {
			return created, err
		}
	}
	if createErr != nil {
		c.mu.Lock()
		c.state = StateError
		c.err = createErr
		c.mu.Unlock()
		return created, createErr
	}
	return created, nil
}
