package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// NetworkErrorMessage is used when nothing better describes a failure.
const NetworkErrorMessage = "Network error"

// Kind classifies a GatewayError.
type Kind int

const (
	// KindNetwork means no response was obtained.
	KindNetwork Kind = iota + 1
	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP
	// KindProtocol means a 2xx response could not be interpreted.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindProtocol:
		return "protocol"
	}
	return "unknown"
}

// GatewayError is the single error type returned for failed API calls.
type GatewayError struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// AsGatewayError extracts a GatewayError from err.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gw *GatewayError
	if errors.As(err, &gw) {
		return gw, true
	}
	return nil, false
}

// IsStatus reports whether err is an HTTP failure with the given status.
func IsStatus(err error, status int) bool {
	gw, ok := AsGatewayError(err)
	return ok && gw.Kind == KindHTTP && gw.Status == status
}

func networkError(op string, err error) *GatewayError {
	return &GatewayError{Op: op, Kind: KindNetwork, Message: NetworkErrorMessage, Err: err}
}

// requestError reports a failure to build or authorise a request before it
// was sent.
func requestError(op string, err error) *GatewayError {
	return &GatewayError{Op: op, Kind: KindNetwork, Message: err.Error(), Err: err}
}

func httpError(op string, status int, body []byte) *GatewayError {
	return &GatewayError{Op: op, Kind: KindHTTP, Status: status, Message: messageFromBody(body)}
}

func protocolError(op string, status int, message string, err error) *GatewayError {
	if message == "" {
		message = NetworkErrorMessage
	}
	return &GatewayError{Op: op, Kind: KindProtocol, Status: status, Message: message, Err: err}
}

// messageFromBody picks the human readable message out of a response body:
// the "error" field, then "message", then "detail", then the raw text, then
// the generic fallback.
func messageFromBody(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"error", "message", "detail"} {
			if msg := fieldText(fields[key], key == "detail"); msg != "" {
				return msg
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return NetworkErrorMessage
}

// fieldText returns a string field's value. Structured values are only
// accepted when anyShape is set and are returned as compact JSON.
func fieldText(raw json.RawMessage, anyShape bool) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	if !anyShape {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	return buf.String()
}
