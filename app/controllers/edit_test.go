package controllers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-client/app/controllers"
	"todo-client/app/models"
	"todo-client/app/routes"
)

func TestSubmitEdit(t *testing.T) {
	f := newFixture(t)
	task := f.srv.AddTask("alice", "Draft", models.PriorityLow, nil)
	c := controllers.NewRootController(f.gw, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	form := c.BeginEdit(task)
	require.NoError(t, c.SubmitEdit(ctx, form))
	assert.False(t, form.Open())
	assert.Zero(t, f.srv.Count(routes.UpdateTask))

	form = c.BeginEdit(task)
	form.Priority = models.PriorityHigh
	require.NoError(t, c.SubmitEdit(ctx, form))
	assert.False(t, form.Open())
	req, _ := f.srv.LastRequest(routes.UpdateTask)
	assert.JSONEq(t, `{"priority":3}`, string(req.Body))
	assert.Equal(t, models.PriorityHigh, c.Tasks()[0].Priority)
}

func TestSubmitEditFailureKeepsFormOpen(t *testing.T) {
	f := newFixture(t)
	task := f.srv.AddTask("alice", "Draft", models.PriorityLow, nil)
	c := controllers.NewRootController(f.gw, zerolog.Nop())
	ctx := context.Background()

	form := c.BeginEdit(task)
	form.Title = "Final"
	f.srv.FailNext(routes.UpdateTask, http.StatusInternalServerError, `{"message":"Try later"}`)
	err := c.SubmitEdit(ctx, form)
	require.Error(t, err)
	assert.Equal(t, "Failed to update task: Try later", err.Error())
	assert.True(t, form.Open())
	assert.Equal(t, "Final", form.Title)
	assert.Equal(t, err, form.Err())

	require.NoError(t, c.SubmitEdit(ctx, form))
	assert.False(t, form.Open())
	assert.NoError(t, form.Err())
	assert.Equal(t, "Final", f.srv.Tasks("alice")[0].Title)
}

func TestSubmitEditValidation(t *testing.T) {
	f := newFixture(t)
	task := f.srv.AddTask("alice", "Draft", models.PriorityLow, nil)
	c := controllers.NewRootController(f.gw, zerolog.Nop())

	form := c.BeginEdit(task)
	form.Title = ""
	err := c.SubmitEdit(context.Background(), form)
	assert.True(t, models.IsValidationError(err))
	assert.True(t, form.Open())
	assert.Zero(t, f.srv.Count(routes.UpdateTask))

	form.Cancel()
	assert.False(t, form.Open())
}
