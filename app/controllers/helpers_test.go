package controllers_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"todo-client/app/apitest"
	"todo-client/app/models"
	"todo-client/app/services"
	"todo-client/app/session"
)

type fixture struct {
	srv *apitest.Server
	gw  *services.Gateway
}

// newFixture starts a fake API with alice signed in.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser("alice", "secret", "First pet?", "Rex")

	provider := session.NewProvider(session.NewMemoryStore(), zerolog.Nop())
	gw, err := services.NewGateway(srv.URL, provider)
	require.NoError(t, err)
	_, err = gw.Login(context.Background(), models.Credentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	return &fixture{srv: srv, gw: gw}
}

// stubGateway overrides selected calls and delegates the rest.
type stubGateway struct {
	*services.Gateway
	listTasks  func(ctx context.Context) ([]models.Task, error)
	createTask func(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error)
	subtasks   func(ctx context.Context, parentID int64) ([]models.Task, error)
}

func (s *stubGateway) ListSubtasks(ctx context.Context, parentID int64) ([]models.Task, error) {
	if s.subtasks != nil {
		return s.subtasks(ctx, parentID)
	}
	return s.Gateway.ListSubtasks(ctx, parentID)
}

func (s *stubGateway) ListTasks(ctx context.Context) ([]models.Task, error) {
	if s.listTasks != nil {
		return s.listTasks(ctx)
	}
	return s.Gateway.ListTasks(ctx)
}

func (s *stubGateway) CreateTask(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	if s.createTask != nil {
		return s.createTask(ctx, req)
	}
	return s.Gateway.CreateTask(ctx, req)
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}
