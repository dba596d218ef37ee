// Package apitest serves the task API from memory for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"todo-client/app/models"
	"todo-client/app/routes"
)

// Request is a request the server received.
type Request struct {
	Route  string
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

type account struct {
	user     models.User
	password string
	question string
	answer   string
}

// Server is an in-memory implementation of the task API.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account
	tokens      map[string]string
	resetTokens map[string]string
	tasks       map[string][]*models.Task
	nextUserID  int64
	nextTaskID  int64
	suggestions []string
	failures    map[string][]failure
	requests    []Request
}

// NewServer starts a server. Call Close when done.
func NewServer() *Server {
	s := &Server{
		accounts:    make(map[string]*account),
		tokens:      make(map[string]string),
		resetTokens: make(map[string]string),
		tasks:       make(map[string][]*models.Task),
		failures:    make(map[string][]failure),
		suggestions: []string{"Plan the week", "Review pull requests", "Call the dentist"},
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, map[string]http.HandlerFunc{
		routes.Login:            s.login,
		routes.Register:         s.register,
		routes.ListTasks:        s.authed(s.listTasks),
		routes.CreateTask:       s.authed(s.createTask),
		routes.UpdateTask:       s.authed(s.updateTask),
		routes.DeleteTask:       s.authed(s.deleteTask),
		routes.CompleteTask:     s.authed(s.completeTask),
		routes.ListSubtasks:     s.authed(s.listSubtasks),
		routes.SuggestedTasks:   s.authed(s.suggestedTasks),
		routes.ForgotPassword:   s.forgotPassword,
		routes.SecurityQuestion: s.securityQuestion,
		routes.VerifyAnswer:     s.verifyAnswer,
		routes.ResetPassword:    s.resetPassword,
		routes.ImportMarkdown:   s.authed(s.importMarkdown),
		routes.ExportTasks:      s.authed(s.exportTasks),
	})
	router.Use(s.record)

	s.Server = httptest.NewServer(router)
	return s
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, password, question, answer string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, username+"@example.com", password, question, answer)
}

func (s *Server) addUserLocked(username, email, password, question, answer string) models.User {
	s.nextUserID++
	u := models.User{ID: s.nextUserID, Username: username, Email: email}
	s.accounts[username] = &account{user: u, password: password, question: question, answer: answer}
	return u
}

// IssueToken returns a valid bearer token for username.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.tokens[token] = username
	return token
}

// AddTask stores a task for username. Parent linkage and depth follow parent.
func (s *Server) AddTask(username, title string, priority models.Priority, parent *models.Task) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := models.TaskDraft{Title: title, Priority: priority, Parent: parent}.Request()
	return *s.insertLocked(username, req)
}

// SetCompleted flips completion on a stored task.
func (s *Server) SetCompleted(username string, id int64, completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.findLocked(username, id); t != nil {
		t.Completed = completed
	}
}

// SetSuggestions replaces the suggested titles.
func (s *Server) SetSuggestions(titles ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = titles
}

// FailNext makes the next request to route answer with status and body.
func (s *Server) FailNext(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, body: body})
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request to route.
func (s *Server) LastRequest(route string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Route == route {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

// Count returns how many requests route received.
func (s *Server) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Route == route {
			n++
		}
	}
	return n
}

// Tasks returns a snapshot of the stored tasks for username.
func (s *Server) Tasks(username string) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(username, func(*models.Task) bool { return true })
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Route:  name,
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		var injected *failure
		if queue := s.failures[name]; len(queue) > 0 {
			injected = &queue[0]
			s.failures[name] = queue[1:]
		}
		s.mu.Unlock()

		if injected != nil {
			w.WriteHeader(injected.status)
			io.WriteString(w, injected.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(h func(w http.ResponseWriter, r *http.Request, username string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		username, known := s.tokens[token]
		s.mu.Unlock()
		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
			return
		}
		h(w, r, username)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request payload"})
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[creds.Username]
	s.mu.Unlock()
	if !ok || acct.password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid username or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": s.IssueToken(creds.Username), "user": acct.user})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request payload"})
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[reg.Username]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]any{"error": "Username already exists"})
		return
	}
	u := s.addUserLocked(reg.Username, reg.Email, reg.Password, reg.SecurityQuestion, reg.SecurityAnswer)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"token": s.IssueToken(reg.Username), "user": u})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request, username string) {
	s.mu.Lock()
	tasks := s.snapshotLocked(username, func(*models.Task) bool { return true })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) listSubtasks(w http.ResponseWriter, r *http.Request, username string) {
	id, _ := strconv.ParseInt(mux.Vars(r)["taskID"], 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(username, id) == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Task not found"})
		return
	}
	subtasks := s.snapshotLocked(username, func(t *models.Task) bool {
		return t.ParentTaskID != nil && *t.ParentTaskID == id
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "subtasks": subtasks})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request, username string) {
	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request payload"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Title is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ParentTaskID != nil && s.findLocked(username, *req.ParentTaskID) == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Parent task not found"})
		return
	}
	task := s.insertLocked(username, req)
	writeJSON(w, http.StatusCreated, map[string]any{"task": s.withAggregatesLocked(username, task)})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, username string) {
	id, _ := strconv.ParseInt(mux.Vars(r)["taskID"], 10, 64)
	var update models.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request payload"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.findLocked(username, id)
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Task not found"})
		return
	}
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": s.withAggregatesLocked(username, task)})
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request, username string) {
	id, _ := strconv.ParseInt(mux.Vars(r)["taskID"], 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.findLocked(username, id)
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Task not found"})
		return
	}
	task.Completed = true
	w.WriteHeader(http.StatusOK)
}

// deleteTask removes the task and, first, everything below it.
func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request, username string) {
	id, _ := strconv.ParseInt(mux.Vars(r)["taskID"], 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(username, id) == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Task not found"})
		return
	}
	doomed := map[int64]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, t := range s.tasks[username] {
			if !doomed[t.ID] && t.ParentTaskID != nil && doomed[*t.ParentTaskID] {
				doomed[t.ID] = true
				changed = true
			}
		}
	}
	kept := s.tasks[username][:0]
	for _, t := range s.tasks[username] {
		if !doomed[t.ID] {
			kept = append(kept, t)
		}
	}
	s.tasks[username] = kept
	w.WriteHeader(http.StatusOK)
}

func (s *Server) suggestedTasks(w http.ResponseWriter, r *http.Request, username string) {
	s.mu.Lock()
	titles := append([]string{}, s.suggestions...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"suggested_tasks": titles})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) securityQuestion(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	s.mu.Lock()
	acct, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok || acct.question == "" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "No security question found for this user"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"security_question": acct.question})
}

func (s *Server) verifyAnswer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username       string `json:"username"`
		SecurityAnswer string `json:"security_answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request payload"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[body.Username]
	if !ok || !strings.EqualFold(strings.TrimSpace(acct.answer), strings.TrimSpace(body.SecurityAnswer)) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Incorrect answer"})
		return
	}
	token := uuid.NewString()
	s.resetTokens[token] = body.Username
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "reset_token": token})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request payload"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.resetTokens[body.Token]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid or expired token"})
		return
	}
	delete(s.resetTokens, body.Token)
	s.accounts[username].password = body.NewPassword
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset successfully"})
}

// importMarkdown accepts either {"content": ...} or a multipart "file" field.
func (s *Server) importMarkdown(w http.ResponseWriter, r *http.Request, username string) {
	var content string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No file provided"})
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		content = string(data)
	} else {
		var body struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request payload"})
			return
		}
		content = body.Content
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var parent *models.Task
	created := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "## "):
			if parent == nil {
				continue
			}
			draft := models.TaskDraft{Title: strings.TrimPrefix(line, "## "), Priority: models.PriorityMedium, Parent: parent}
			s.insertLocked(username, draft.Request())
			created++
		case strings.HasPrefix(line, "# "):
			draft := models.TaskDraft{Title: strings.TrimPrefix(line, "# "), Priority: models.PriorityMedium}
			parent = s.insertLocked(username, draft.Request())
			created++
		}
	}
	if created == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "No tasks found in markdown"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": strconv.Itoa(created) + " tasks imported"})
}

func (s *Server) exportTasks(w http.ResponseWriter, r *http.Request, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, t := range s.tasks[username] {
		if t.ParentTaskID != nil {
			continue
		}
		b.WriteString("# " + t.Title + "\n")
		for _, c := range s.tasks[username] {
			if c.ParentTaskID != nil && *c.ParentTaskID == t.ID {
				b.WriteString("## " + c.Title + "\n")
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content":      b.String(),
		"filename":     "tasks_export.md",
		"content_type": "text/markdown",
	})
}

func (s *Server) insertLocked(username string, req models.CreateTaskRequest) *models.Task {
	s.nextTaskID++
	t := &models.Task{
		ID:        s.nextTaskID,
		Title:     req.Title,
		Priority:  req.Priority,
		CreatedAt: models.Timestamp{Time: time.Now().UTC()},
	}
	if req.ParentTaskID != nil {
		parentID := *req.ParentTaskID
		t.ParentTaskID = &parentID
		t.IsSubtask = true
	}
	if req.Depth != nil {
		t.Depth = *req.Depth
	}
	s.tasks[username] = append(s.tasks[username], t)
	return t
}

func (s *Server) findLocked(username string, id int64) *models.Task {
	for _, t := range s.tasks[username] {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Server) snapshotLocked(username string, keep func(*models.Task) bool) []models.Task {
	out := make([]models.Task, 0, len(s.tasks[username]))
	for _, t := range s.tasks[username] {
		if keep(t) {
			out = append(out, s.withAggregatesLocked(username, t))
		}
	}
	return out
}

func (s *Server) withAggregatesLocked(username string, t *models.Task) models.Task {
	out := *t
	out.SubtaskCount, out.CompletedSubtaskCount, out.CompletionPercentage = 0, 0, nil
	for _, c := range s.tasks[username] {
		if c.ParentTaskID != nil && *c.ParentTaskID == t.ID {
			out.SubtaskCount++
			if c.Completed {
				out.CompletedSubtaskCount++
			}
		}
	}
	if out.SubtaskCount > 0 {
		pct := models.NewProgress(out.SubtaskCount, out.CompletedSubtaskCount).Percentage
		out.CompletionPercentage = &pct
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
