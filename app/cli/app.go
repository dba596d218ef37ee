package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"todo-client/app/config"
	"todo-client/app/controllers"
	"todo-client/app/models"
	"todo-client/app/services"
	"todo-client/app/session"
)

// app is the wiring shared by every command.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	provider *session.Provider
	gateway  *services.Gateway
	closers  []func() error
}

func (o *rootOptions) app(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.API.BaseURL = o.baseURL
	}
	switch {
	case o.trace:
		cfg.Log.Level = "trace"
	case o.debug:
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: config.NewLogger(cfg.Log, cmd.ErrOrStderr())}
	store, err := a.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	a.provider = session.NewProvider(store, a.log)

	a.gateway, err = services.NewGateway(cfg.API.BaseURL, a.provider,
		services.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		services.WithLogger(a.log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.Session.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		store, err := session.NewRedisStore(ctx, session.RedisConfig{
			Address:   a.cfg.Redis.Addr,
			Password:  a.cfg.Redis.Password,
			DB:        a.cfg.Redis.DB,
			KeyPrefix: a.cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
	return session.NewFileStore(a.cfg.Session.Path), nil
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.log.Warn().Err(err).Msg("Close failed")
		}
	}
}

// requireLogin fails early when there is no stored session.
func (a *app) requireLogin(ctx context.Context) error {
	token, err := a.provider.Get(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("not logged in, run \"todo login\" first")
	}
	return nil
}

func (a *app) rootController() *controllers.TaskController {
	return controllers.NewRootController(a.gateway, a.log)
}

// controllerFor returns the controller of the list task id lives in.
func (a *app) controllerFor(ctx context.Context, id int64) (*controllers.TaskController, models.Task, error) {
	task, err := a.findTask(ctx, id)
	if err != nil {
		return nil, models.Task{}, err
	}
	if task.IsRoot() || task.ParentTaskID == nil {
		return a.rootController(), task, nil
	}
	parent, err := a.findTask(ctx, *task.ParentTaskID)
	if err != nil {
		return nil, models.Task{}, err
	}
	return controllers.NewSubtaskController(a.gateway, parent, a.log), task, nil
}

// findTask looks id up in the flat listing, which holds tasks of every depth.
func (a *app) findTask(ctx context.Context, id int64) (models.Task, error) {
	tasks, err := a.gateway.ListTasks(ctx)
	if err != nil {
		return models.Task{}, &controllers.ActionError{Action: controllers.ActionLoad, Err: err}
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Task{}, fmt.Errorf("task %d not found", id)
}
