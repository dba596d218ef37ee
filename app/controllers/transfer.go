package controllers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"todo-client/app/models"
)

const fallbackExportName = "tasks.md"

// Import submits markdown for bulk creation and refetches the list.
func (c *TaskController) Import(ctx context.Context, content string) (models.ImportResult, error) {
	return c.runImport(ctx, func(ctx context.Context) (models.ImportResult, error) {
		return c.gw.ImportMarkdown(ctx, content)
	})
}

// ImportFile uploads the markdown file at path and refetches the list.
func (c *TaskController) ImportFile(ctx context.Context, path string) (models.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.ImportResult{}, &ActionError{Action: ActionImport, Err: err}
	}
	defer f.Close()
	return c.runImport(ctx, func(ctx context.Context) (models.ImportResult, error) {
		return c.gw.ImportMarkdownFile(ctx, filepath.Base(path), f)
	})
}

func (c *TaskController) runImport(ctx context.Context, send func(context.Context) (models.ImportResult, error)) (models.ImportResult, error) {
	var result models.ImportResult
	err := c.mutate(ctx, ActionImport, 0, func(ctx context.Context) error {
		r, err := send(ctx)
		if err != nil {
			return err
		}
		result = r
		if !r.Success {
			msg := r.Message
			if msg == "" {
				msg = "import was rejected"
			}
			return errors.New(msg)
		}
		return nil
	})
	return result, err
}

// Export fetches the markdown export and writes it into dir.
func (c *TaskController) Export(ctx context.Context, dir string) (string, error) {
	key := actionKey(ActionExport, 0)
	if !c.begin(key) {
		return "", ErrActionInFlight
	}
	defer c.end(key)

	payload, err := c.gw.ExportTasks(ctx)
	if err != nil {
		return "", &ActionError{Action: ActionExport, Err: err}
	}
	path, err := WriteExport(dir, payload)
	if err != nil {
		return "", &ActionError{Action: ActionExport, Err: err}
	}
	return path, nil
}

// WriteExport writes payload into dir under its suggested file name, reduced
// to a base name.
func WriteExport(dir string, payload models.ExportPayload) (string, error) {
	name := filepath.Base(strings.ReplaceAll(payload.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" || name == ".." {
		name = fallbackExportName
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(payload.Content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
