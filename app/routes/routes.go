package routes

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// Route names for the task API.
const (
	Login            = "login"
	Register         = "register"
	ListTasks        = "list_tasks"
	CreateTask       = "create_task"
	UpdateTask       = "update_task"
	CompleteTask     = "complete_task"
	DeleteTask       = "delete_task"
	ListSubtasks     = "list_subtasks"
	SuggestedTasks   = "suggested_tasks"
	ForgotPassword   = "forgot_password"
	SecurityQuestion = "security_question"
	VerifyAnswer     = "verify_security_answer"
	ResetPassword    = "reset_password"
	ImportMarkdown   = "import_markdown"
	ExportTasks      = "export_tasks"
)

// Route describes one endpoint of the task API.
type Route struct {
	Name   string
	Method string
	Path   string
	// Public routes are sent without the bearer credential.
	Public bool
}

// Table lists every endpoint the client talks to.
var Table = []Route{
	{Name: Login, Method: http.MethodPost, Path: "/auth/login", Public: true},
	{Name: Register, Method: http.MethodPost, Path: "/auth/register", Public: true},
	{Name: ListTasks, Method: http.MethodGet, Path: "/tasks"},
	{Name: CreateTask, Method: http.MethodPost, Path: "/tasks"},
	{Name: UpdateTask, Method: http.MethodPut, Path: "/tasks/{taskID:[0-9]+}"},
	{Name: DeleteTask, Method: http.MethodDelete, Path: "/tasks/{taskID:[0-9]+}"},
	{Name: CompleteTask, Method: http.MethodPost, Path: "/tasks/{taskID:[0-9]+}/complete"},
	{Name: ListSubtasks, Method: http.MethodGet, Path: "/tasks/{taskID:[0-9]+}/subtasks"},
	{Name: SuggestedTasks, Method: http.MethodGet, Path: "/suggested_tasks"},
	{Name: ForgotPassword, Method: http.MethodPost, Path: "/forgot_password", Public: true},
	{Name: SecurityQuestion, Method: http.MethodGet, Path: "/users/{username}/security_question", Public: true},
	{Name: VerifyAnswer, Method: http.MethodPost, Path: "/security_answer/verify", Public: true},
	{Name: ResetPassword, Method: http.MethodPost, Path: "/reset_password", Public: true},
	{Name: ImportMarkdown, Method: http.MethodPost, Path: "/import_markdown"},
	{Name: ExportTasks, Method: http.MethodGet, Path: "/export_tasks"},
}

// Lookup returns the route registered under name.
func Lookup(name string) (Route, bool) {
	for _, r := range Table {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// NewRouter registers every route on a fresh router without handlers. The
// router can build URLs for the client and have handlers attached by a server.
func NewRouter() *mux.Router {
	router := mux.NewRouter()
	RegisterRoutes(router, nil)
	return router
}

// RegisterRoutes sets up all routes on router. Handlers are looked up by route
// name; names missing from handlers are registered without one.
func RegisterRoutes(router *mux.Router, handlers map[string]http.HandlerFunc) {
	for _, r := range Table {
		route := router.Path(r.Path).Methods(r.Method).Name(r.Name)
		if h, ok := handlers[r.Name]; ok {
			route.HandlerFunc(h)
		}
	}
}

// Path builds the escaped URL path of a named route from key/value pairs.
// Each value is path-escaped, so it always lands in a single segment.
func Path(router *mux.Router, name string, pairs ...string) (string, error) {
	route := router.Get(name)
	if route == nil {
		return "", fmt.Errorf("unknown route %q", name)
	}
	escaped := make([]string, len(pairs))
	for i, v := range pairs {
		if i%2 == 1 {
			v = url.PathEscape(v)
		}
		escaped[i] = v
	}
	u, err := route.URLPath(escaped...)
	if err != nil {
		return "", fmt.Errorf("route %s: %w", name, err)
	}
	return u.Path, nil
}
