package controllers

import (
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"todo-client/app/models"
)

// Gateway is the part of the remote API the task screens use.
type Gateway interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListSubtasks(ctx context.Context, parentID int64) ([]models.Task, error)
	CreateTask(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, update models.TaskUpdate) (*models.Task, error)
	CompleteTask(ctx context.Context, id int64) error
	DeleteTask(ctx context.Context, id int64) error
	SuggestedTasks(ctx context.Context) ([]string, error)
	ImportMarkdown(ctx context.Context, content string) (models.ImportResult, error)
	ImportMarkdownFile(ctx context.Context, filename string, r io.Reader) (models.ImportResult, error)
	ExportTasks(ctx context.Context) (models.ExportPayload, error)
}

// State is the lifecycle state of a task list.
type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// TaskController holds the task list behind one screen: either the root list
// or the subtasks of one parent. Every successful mutation is followed by a
// full refetch; the list is never patched locally.
type TaskController struct {
	gw     Gateway
	parent *models.Task
	log    zerolog.Logger

	mu       sync.Mutex
	state    State
	tasks    []models.Task
	err      error
	filter   models.Filter
	inFlight map[string]bool
	issued   uint64
	applied  uint64
}

// NewRootController creates the controller for the root task list.
func NewRootController(gw Gateway, log zerolog.Logger) *TaskController {
	return newTaskController(gw, nil, log)
}

// NewSubtaskController creates the controller for the children of parent.
func NewSubtaskController(gw Gateway, parent models.Task, log zerolog.Logger) *TaskController {
	return newTaskController(gw, &parent, log)
}

func newTaskController(gw Gateway, parent *models.Task, log zerolog.Logger) *TaskController {
	l := log.With().Str("component", "tasks")
	if parent != nil {
		l = l.Int64("parent_id", parent.ID)
	}
	return &TaskController{
		gw:       gw,
		parent:   parent,
		log:      l.Logger(),
		state:    StateLoading,
		filter:   models.FilterAll,
		inFlight: make(map[string]bool),
	}
}

// Parent returns the parent task of a subtask list, or nil for the root list.
func (c *TaskController) Parent() *models.Task {
	if c.parent == nil {
		return nil
	}
	p := *c.parent
	return &p
}

func (c *TaskController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the last failure, or nil after a successful refresh.
func (c *TaskController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Tasks returns the list as of the last successful fetch, unfiltered.
func (c *TaskController) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Task(nil), c.tasks...)
}

// Visible returns the tasks that pass the current filter, in server order.
func (c *TaskController) Visible() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Apply(c.tasks)
}

func (c *TaskController) Filter() models.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetFilter changes the visible subset. It never refetches.
func (c *TaskController) SetFilter(f models.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

// Progress summarises the fetched subtasks of a subtask list.
func (c *TaskController) Progress() (models.Progress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Summarize(c.tasks)
}

// Busy reports whether action is running for the task id. Use 0 for actions
// that do not target a task.
func (c *TaskController) Busy(action Action, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[actionKey(action, id)]
}

// Refresh refetches the list. On failure the last good list is kept.
func (c *TaskController) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	tasks, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	stale := seq < c.applied
	if err != nil {
		loadErr := &ActionError{Action: ActionLoad, Err: err}
		if stale {
			// A later refresh already landed; keep its state.
			return loadErr
		}
		c.state = StateError
		c.err = loadErr
		c.log.Warn().Err(err).Msg("Refresh failed, keeping last list")
		return loadErr
	}
	if stale {
		return nil
	}
	c.applied = seq
	c.tasks = tasks
	c.state = StateReady
	c.err = nil
	c.log.Debug().Int("count", len(tasks)).Msg("Tasks refreshed")
	return nil
}

func (c *TaskController) fetch(ctx context.Context) ([]models.Task, error) {
	if c.parent != nil {
		return c.gw.ListSubtasks(ctx, c.parent.ID)
	}
	tasks, err := c.gw.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return models.Roots(tasks), nil
}

// Create validates and creates a task in this list. Subtask lists link the
// new task to their parent one level deeper.
func (c *TaskController) Create(ctx context.Context, title string, priority models.Priority) (*models.Task, error) {
	draft := models.TaskDraft{Title: title, Priority: priority, Parent: c.parent}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	var created *models.Task
	err := c.mutate(ctx, ActionCreate, 0, func(ctx context.Context) error {
		t, err := c.gw.CreateTask(ctx, draft.Request())
		created = t
		return err
	})
	return created, err
}

// Update sends a partial update for task id.
func (c *TaskController) Update(ctx context.Context, id int64, update models.TaskUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	return c.mutate(ctx, ActionUpdate, id, func(ctx context.Context) error {
		_, err := c.gw.UpdateTask(ctx, id, update)
		return err
	})
}

// Complete marks task id completed.
func (c *TaskController) Complete(ctx context.Context, id int64) error {
	return c.mutate(ctx, ActionComplete, id, func(ctx context.Context) error {
		return c.gw.CompleteTask(ctx, id)
	})
}

// Delete removes task id and, on the server, its descendants.
func (c *TaskController) Delete(ctx context.Context, id int64) error {
	return c.mutate(ctx, ActionDelete, id, func(ctx context.Context) error {
		return c.gw.DeleteTask(ctx, id)
	})
}

// mutate runs fn once with the action marked busy, then refetches. A failed
// fn is reported as an ActionError and is not retried.
func (c *TaskController) mutate(ctx context.Context, action Action, id int64, fn func(context.Context) error) error {
	key := actionKey(action, id)
	if !c.begin(key) {
		return ErrActionInFlight
	}
	defer c.end(key)

	if err := fn(ctx); err != nil {
		actionErr := &ActionError{Action: action, Err: err}
		c.mu.Lock()
		c.state = StateError
		c.err = actionErr
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("action", string(action)).Int64("task_id", id).Msg("Mutation failed")
		return actionErr
	}
	c.log.Debug().Str("action", string(action)).Int64("task_id", id).Msg("Mutation succeeded")
	return c.Refresh(ctx)
}

func (c *TaskController) begin(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[key] {
		return false
	}
	c.inFlight[key] = true
	return true
}

func (c *TaskController) end(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, key)
}

func actionKey(action Action, id int64) string {
	if id == 0 {
		return string(action)
	}
	return string(action) + ":" + strconv.FormatInt(id, 10)
}
