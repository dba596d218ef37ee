package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-client/app/apitest"
	"todo-client/app/models"
)

type harness struct {
	t   *testing.T
	srv *apitest.Server
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser("alice", "secret", "First pet?", "Rex")
	srv.AddUser("bob", "oldpass", "Favourite colour?", "Blue")

	dir := t.TempDir()
	t.Setenv("TASKS_API_BASE_URL", srv.URL)
	t.Setenv("TASKS_SESSION_BACKEND", "file")
	t.Setenv("TASKS_SESSION_PATH", filepath.Join(dir, "session.json"))
	t.Setenv("TASKS_LOG_LEVEL", "error")
	return &harness{t: t, srv: srv, dir: dir}
}

// run executes one command line and returns what it printed to stdout.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	out, err := h.run("", "login", "-u", "alice", "-p", "secret")
	require.NoError(h.t, err)
	require.Equal(h.t, "Logged in as alice\n", out)
}

func TestLoginPersistsSession(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("alice\nsecret\n", "login")
	require.NoError(t, err)
	assert.Equal(t, "Logged in as alice\n", out)

	data, err := os.ReadFile(filepath.Join(h.dir, "session.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"auth_token"`)

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "alice <alice@example.com>\n", out)

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out\n", out)

	_, err = h.run("", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "login", "-u", "alice", "-p", "nope")
	require.Error(t, err)
	assert.Equal(t, "Failed to log in: Invalid username or password", err.Error())
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "register", "-u", "carol", "--email", "carol@example.com",
		"-p", "secret1", "--confirm", "secret1", "--question", "Town?", "--answer", "Bergen")
	require.NoError(t, err)
	assert.Equal(t, "Registered and logged in as carol\n", out)

	_, err = h.run("", "register", "-u", "dave", "--email", "dave@example.com",
		"-p", "secret1", "--confirm", "other", "--question", "Town?", "--answer", "Bergen")
	assert.True(t, models.IsValidationError(err))
}

func TestAddListAndComplete(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "add", "Trip", "-p", "high")
	require.NoError(t, err)
	assert.Equal(t, "Created task 1: Trip\n", out)

	out, err = h.run("", "add", "Book flights", "--parent", "1", "-p", "low")
	require.NoError(t, err)
	assert.Equal(t, "Created task 2: Book flights\n", out)
	assert.Equal(t, 1, h.srv.Tasks("alice")[1].Depth)

	out, err = h.run("", "list", "-o", "json")
	require.NoError(t, err)
	var views []taskView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Trip", views[0].Title)
	assert.Equal(t, "high", views[0].Priority)
	assert.Equal(t, 1, views[0].Subtasks)

	out, err = h.run("", "complete", "2")
	require.NoError(t, err)
	assert.Equal(t, "Completed task 2\n", out)

	out, err = h.run("", "subtasks", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Book flights")
	assert.Contains(t, out, "Trip: 1 of 1 done (100%)")

	out, err = h.run("", "list", "--filter", "completed")
	require.NoError(t, err)
	assert.Equal(t, "No tasks.\n", out)
}

func TestEditAndDelete(t *testing.T) {
	h := newHarness(t)
	h.login()
	parent := h.srv.AddTask("alice", "Draft", models.PriorityLow, nil)
	h.srv.AddTask("alice", "Outline", models.PriorityLow, &parent)

	out, err := h.run("", "edit", "2", "--title", "Outline v2")
	require.NoError(t, err)
	assert.Equal(t, "Updated task 2\n", out)
	assert.Equal(t, "Outline v2", h.srv.Tasks("alice")[1].Title)

	out, err = h.run("", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted task 1\n", out)
	assert.Empty(t, h.srv.Tasks("alice"))

	_, err = h.run("", "delete", "1")
	assert.EqualError(t, err, "task 1 not found")
}

func TestTree(t *testing.T) {
	h := newHarness(t)
	h.login()
	house := h.srv.AddTask("alice", "House", models.PriorityHigh, nil)
	h.srv.AddTask("alice", "Kitchen", models.PriorityMedium, &house)

	out, err := h.run("", "tree")
	require.NoError(t, err)
	assert.Equal(t, "[ ] #1 House (high) 0/1 (0%)\n  [ ] #2 Kitchen (medium)\n", out)
}

func TestSuggest(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "suggest")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Plan the week (medium)")
	assert.Empty(t, h.srv.Tasks("alice"))

	out, err = h.run("", "suggest", "--select", "2", "--priority", "2=high")
	require.NoError(t, err)
	assert.Equal(t, "Created task 1: Review pull requests (high)\n", out)
}

func TestImportExport(t *testing.T) {
	h := newHarness(t)
	h.login()
	path := filepath.Join(h.dir, "plan.md")
	require.NoError(t, os.WriteFile(path, []byte("# Garden\n## Weed beds\n"), 0o644))

	out, err := h.run("", "import", path)
	require.NoError(t, err)
	assert.Equal(t, "2 tasks imported\n", out)

	out, err = h.run("", "import", "--upload", path)
	require.NoError(t, err)
	assert.Equal(t, "2 tasks imported\n", out)
	assert.Len(t, h.srv.Tasks("alice"), 4)

	exportDir := filepath.Join(h.dir, "out")
	out, err = h.run("", "export", "--dir", exportDir)
	require.NoError(t, err)
	target := filepath.Join(exportDir, "tasks_export.md")
	assert.Equal(t, "Exported tasks to "+target+"\n", out)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "# Garden\n## Weed beds\n# Garden\n## Weed beds\n", string(data))
}

func TestRecover(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("Red\nBlue\nnewpass\nnewpass\n", "recover", "-u", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Security question: Favourite colour?")
	assert.Contains(t, out, "That answer was not accepted, try again.")
	assert.Contains(t, out, "Password reset.")

	out, err = h.run("", "login", "-u", "bob", "-p", "newpass")
	require.NoError(t, err)
	assert.Equal(t, "Logged in as bob\n", out)
}

func TestRecoverAbandoned(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("Red\n", "recover", "-u", "bob")
	assert.EqualError(t, err, "recovery abandoned")
}

func TestConfigShow(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: "+h.srv.URL)
	assert.Contains(t, out, "backend: file")
	assert.NotContains(t, out, "password")
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness(t)
	h.login()
	_, err := h.run("", "list", "-o", "xml")
	assert.EqualError(t, err, `unknown output format "xml"`)
}
