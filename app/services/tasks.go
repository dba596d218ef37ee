package services

import (
	"context"
	"strconv"

	"todo-client/app/models"
	"todo-client/app/routes"
)

type taskListResponse struct {
	Tasks *[]models.Task `json:"tasks"`
}

type subtaskListResponse struct {
	Success  *bool          `json:"success"`
	Subtasks *[]models.Task `json:"subtasks"`
}

type taskResponse struct {
	Task *models.Task `json:"task"`
}

type suggestionsResponse struct {
	SuggestedTasks *[]string `json:"suggested_tasks"`
}

func taskVars(id int64) []string {
	return []string{"taskID", strconv.FormatInt(id, 10)}
}

// ListTasks returns the full flat collection of the user's tasks, roots and
// subtasks mixed, in server order.
func (g *Gateway) ListTasks(ctx context.Context) ([]models.Task, error) {
	const op = "list tasks"
	var resp taskListResponse
	if _, err := g.send(ctx, call{op: op, route: routes.ListTasks, out: &resp}); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		return nil, protocolError(op, 200, "response is missing tasks", nil)
	}
	return *resp.Tasks, nil
}

// ListSubtasks returns the direct children of parentID.
func (g *Gateway) ListSubtasks(ctx context.Context, parentID int64) ([]models.Task, error) {
	const op = "list subtasks"
	var resp subtaskListResponse
	data, err := g.send(ctx, call{op: op, route: routes.ListSubtasks, vars: taskVars(parentID), out: &resp})
	if err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, protocolError(op, 200, messageFromBody(data), nil)
	}
	if resp.Subtasks == nil {
		return nil, protocolError(op, 200, "response is missing subtasks", nil)
	}
	return *resp.Subtasks, nil
}

// CreateTask creates a root task, or a subtask when req carries a parent.
func (g *Gateway) CreateTask(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	const op = "create task"
	var resp taskResponse
	if _, err := g.send(ctx, call{op: op, route: routes.CreateTask, body: req, out: &resp}); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, protocolError(op, 200, "response is missing task", nil)
	}
	return resp.Task, nil
}

// UpdateTask sends the fields set in update and returns the stored task.
func (g *Gateway) UpdateTask(ctx context.Context, id int64, update models.TaskUpdate) (*models.Task, error) {
	const op = "update task"
	var resp taskResponse
	if _, err := g.send(ctx, call{op: op, route: routes.UpdateTask, vars: taskVars(id), body: update, out: &resp}); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, protocolError(op, 200, "response is missing task", nil)
	}
	return resp.Task, nil
}

// CompleteTask marks the task completed. Completing a completed task succeeds.
func (g *Gateway) CompleteTask(ctx context.Context, id int64) error {
	_, err := g.send(ctx, call{op: "complete task", route: routes.CompleteTask, vars: taskVars(id)})
	return err
}

// DeleteTask removes the task. The server removes its descendants too.
func (g *Gateway) DeleteTask(ctx context.Context, id int64) error {
	_, err := g.send(ctx, call{op: "delete task", route: routes.DeleteTask, vars: taskVars(id)})
	return err
}

// SuggestedTasks returns suggested task titles.
func (g *Gateway) SuggestedTasks(ctx context.Context) ([]string, error) {
	const op = "get suggested tasks"
	var resp suggestionsResponse
	if _, err := g.send(ctx, call{op: op, route: routes.SuggestedTasks, out: &resp}); err != nil {
		return nil, err
	}
	if resp.SuggestedTasks == nil {
		return nil, protocolError(op, 200, "response is missing suggested_tasks", nil)
	}
	return *resp.SuggestedTasks, nil
}
