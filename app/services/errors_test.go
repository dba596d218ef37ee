package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageFromBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"Task not found","message":"ignored"}`, "Task not found"},
		{"message field", `{"message":"Invalid token"}`, "Invalid token"},
		{"detail string", `{"detail":"Not allowed"}`, "Not allowed"},
		{"detail object", `{"detail": {"loc": ["title"]}}`, `{"loc":["title"]}`},
		{"skips empty error", `{"error":"","message":"Use message"}`, "Use message"},
		{"skips non-string error", `{"error":{"code":3},"message":"Use message"}`, "Use message"},
		{"plain text", "Bad Gateway\n", "Bad Gateway"},
		{"json without known fields", `{"status":"nope"}`, `{"status":"nope"}`},
		{"empty", "", NetworkErrorMessage},
		{"whitespace", "   ", NetworkErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageFromBody([]byte(tt.body)))
		})
	}
}

func TestGatewayErrorClassification(t *testing.T) {
	err := httpError("create task", 404, []byte(`{"error":"Parent task not found"}`))
	assert.Equal(t, "Parent task not found", err.Error())
	assert.True(t, IsStatus(err, 404))
	assert.False(t, IsStatus(err, 500))

	netErr := networkError("list tasks", assert.AnError)
	assert.Equal(t, NetworkErrorMessage, netErr.Error())
	assert.ErrorIs(t, netErr, assert.AnError)
	assert.False(t, IsStatus(netErr, 0))

	gw, ok := AsGatewayError(protocolError("list tasks", 200, "", nil))
	assert.True(t, ok)
	assert.Equal(t, KindProtocol, gw.Kind)
	assert.Equal(t, NetworkErrorMessage, gw.Message)
}
