package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"

	"todo-client/app/models"
	"todo-client/app/routes"
)

const (
	defaultExportFilename    = "tasks.md"
	defaultExportContentType = "text/markdown"
)

// ImportMarkdown submits markdown text for bulk creation. The server parses
// it: level-1 headings become tasks, level-2 headings their subtasks.
func (g *Gateway) ImportMarkdown(ctx context.Context, content string) (models.ImportResult, error) {
	const op = "import tasks"
	data, err := g.send(ctx, call{
		op:    op,
		route: routes.ImportMarkdown,
		body:  map[string]string{"content": content},
	})
	if err != nil {
		return models.ImportResult{}, err
	}
	return decodeImportResult(op, data)
}

// ImportMarkdownFile uploads r as a multipart file named filename.
func (g *Gateway) ImportMarkdownFile(ctx context.Context, filename string, r io.Reader) (models.ImportResult, error) {
	const op = "import tasks"

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", "text/markdown")
	part, err := form.CreatePart(header)
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return models.ImportResult{}, fmt.Errorf("%s: read %s: %w", op, filename, err)
	}
	if err := form.Close(); err != nil {
		return models.ImportResult{}, fmt.Errorf("%s: %w", op, err)
	}

	data, err := g.send(ctx, call{
		op:          op,
		route:       routes.ImportMarkdown,
		raw:         &buf,
		contentType: form.FormDataContentType(),
	})
	if err != nil {
		return models.ImportResult{}, err
	}
	return decodeImportResult(op, data)
}

// decodeImportResult treats an empty 2xx body as success.
func decodeImportResult(op string, data []byte) (models.ImportResult, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.ImportResult{Success: true}, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.ImportResult{}, protocolError(op, 200, messageFromBody(data), err)
	}
	result := models.ImportResult{Success: true}
	if raw, ok := fields["success"]; ok {
		if err := json.Unmarshal(raw, &result.Success); err != nil {
			return models.ImportResult{}, protocolError(op, 200, "invalid success flag", err)
		}
	}
	if !result.Success {
		result.Message = messageFromBody(data)
	} else if raw, ok := fields["message"]; ok {
		result.Message = fieldText(raw, false)
	}
	return result, nil
}

// ExportTasks fetches the markdown export of all tasks.
func (g *Gateway) ExportTasks(ctx context.Context) (models.ExportPayload, error) {
	const op = "export tasks"
	var resp struct {
		Content     *string `json:"content"`
		Filename    string  `json:"filename"`
		ContentType string  `json:"content_type"`
	}
	if _, err := g.send(ctx, call{op: op, route: routes.ExportTasks, out: &resp}); err != nil {
		return models.ExportPayload{}, err
	}
	if resp.Content == nil {
		return models.ExportPayload{}, protocolError(op, 200, "response is missing content", nil)
	}
	payload := models.ExportPayload{
		Content:     *resp.Content,
		Filename:    resp.Filename,
		ContentType: resp.ContentType,
	}
	if payload.Filename == "" {
		payload.Filename = defaultExportFilename
	}
	if payload.ContentType == "" {
		payload.ContentType = defaultExportContentType
	}
	return payload, nil
}
