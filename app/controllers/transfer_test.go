package controllers_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-client/app/controllers"
	"todo-client/app/models"
	"todo-client/app/routes"
)

func TestImportRefetches(t *testing.T) {
	f := newFixture(t)
	c := controllers.NewRootController(f.gw, zerolog.Nop())
	ctx := context.Background()

	result, err := c.Import(ctx, "# Groceries\n## Eggs\n## Bread\n# Taxes\n")
	require.NoError(t, err)
	assert.Equal(t, "4 tasks imported", result.Message)
	assert.Equal(t, []string{"Groceries", "Taxes"}, titles(c.Tasks()))
	assert.Equal(t, 2, c.Tasks()[0].SubtaskCount)
}

func TestImportFile(t *testing.T) {
	f := newFixture(t)
	c := controllers.NewRootController(f.gw, zerolog.Nop())
	path := filepath.Join(t.TempDir(), "plan.md")
	require.NoError(t, os.WriteFile(path, []byte("# Gym\n"), 0o644))

	result, err := c.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"Gym"}, titles(c.Tasks()))

	_, err = c.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.md"))
	assert.True(t, controllers.IsAction(err, controllers.ActionImport))
}

func TestImportRejected(t *testing.T) {
	f := newFixture(t)
	c := controllers.NewRootController(f.gw, zerolog.Nop())
	ctx := context.Background()

	_, err := c.Import(ctx, "plain text")
	require.Error(t, err)
	assert.Equal(t, "Failed to import tasks: No tasks found in markdown", err.Error())

	f.srv.FailNext(routes.ImportMarkdown, http.StatusOK, `{"success":false,"message":"Heading too long"}`)
	result, err := c.Import(ctx, "# x")
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Failed to import tasks: Heading too long", err.Error())
}

func TestExportWritesFile(t *testing.T) {
	f := newFixture(t)
	trip := f.srv.AddTask("alice", "Trip", models.PriorityHigh, nil)
	f.srv.AddTask("alice", "Pack", models.PriorityLow, &trip)
	c := controllers.NewRootController(f.gw, zerolog.Nop())
	dir := t.TempDir()

	path, err := c.Export(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tasks_export.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Trip\n## Pack\n", string(data))
}

func TestExportFailure(t *testing.T) {
	f := newFixture(t)
	c := controllers.NewRootController(f.gw, zerolog.Nop())
	f.srv.FailNext(routes.ExportTasks, http.StatusInternalServerError, `{"error":"Export failed"}`)

	_, err := c.Export(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, "Failed to export tasks: Export failed", err.Error())
}

func TestWriteExportSanitizesName(t *testing.T) {
	dir := t.TempDir()
	for name, want := range map[string]string{
		"../../etc/passwd": "passwd",
		`..\evil.md`:       "evil.md",
		"":                 "tasks.md",
		"..":               "tasks.md",
	} {
		path, err := controllers.WriteExport(dir, models.ExportPayload{Content: "x", Filename: name})
		require.NoError(t, err, name)
		assert.Equal(t, filepath.Join(dir, want), path, name)
	}
}
