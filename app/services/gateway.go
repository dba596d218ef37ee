package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"todo-client/app/routes"
	"todo-client/app/session"
)

const maxResponseBytes = 8 << 20

// CredentialProvider supplies and records the bearer token.
type CredentialProvider interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
}

// Gateway translates task operations into calls against the remote API.
// Every method performs exactly one request.
type Gateway struct {
	baseURL *url.URL
	client  *http.Client
	creds   CredentialProvider
	router  *mux.Router
	log     zerolog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		g.client = c
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Gateway) {
		g.log = log
	}
}

// NewGateway creates a Gateway for the API rooted at baseURL.
func NewGateway(baseURL string, creds CredentialProvider, opts ...Option) (*Gateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", baseURL)
	}
	if creds == nil {
		return nil, fmt.Errorf("credential provider is required")
	}

	g := &Gateway{
		baseURL: u,
		client:  &http.Client{Timeout: 15 * time.Second},
		creds:   creds,
		router:  routes.NewRouter(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With().Str("component", "gateway").Logger()
	return g, nil
}

// call describes one request. Either body (sent as JSON) or raw with its
// contentType may be set.
type call struct {
	op          string
	route       string
	vars        []string
	body        any
	raw         io.Reader
	contentType string
	out         any
}

// target resolves a named route against the base URL. The escaped path is
// kept in RawPath so values are not decoded a second time.
func (g *Gateway) target(name string, vars []string) (*url.URL, error) {
	escaped, err := routes.Path(g.router, name, vars...)
	if err != nil {
		return nil, err
	}
	rawPath := strings.TrimSuffix(g.baseURL.EscapedPath(), "/") + escaped
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", name, err)
	}
	target := *g.baseURL
	target.Path = decoded
	target.RawPath = rawPath
	target.RawQuery = ""
	target.Fragment = ""
	return &target, nil
}

// send performs c and returns the raw response body of a 2xx response. When
// c.out is set the body must decode into it.
func (g *Gateway) send(ctx context.Context, c call) ([]byte, error) {
	route, ok := routes.Lookup(c.route)
	if !ok {
		return nil, requestError(c.op, fmt.Errorf("unknown route %q", c.route))
	}
	target, err := g.target(c.route, c.vars)
	if err != nil {
		return nil, requestError(c.op, err)
	}

	body := c.raw
	contentType := c.contentType
	if body == nil && c.body != nil {
		data, err := json.Marshal(c.body)
		if err != nil {
			return nil, requestError(c.op, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, target.String(), body)
	if err != nil {
		return nil, networkError(c.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if !route.Public {
		token, err := g.creds.Get(ctx)
		if err != nil {
			return nil, requestError(c.op, fmt.Errorf("read session: %w", err))
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	logger := g.log.With().
		Str("op", c.op).
		Str("method", route.Method).
		Str("path", target.Path).
		Str("request_id", requestID).
		Logger()

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("Request failed")
		return nil, networkError(c.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("Reading response failed")
		return nil, networkError(c.op, err)
	}
	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := httpError(c.op, resp.StatusCode, data)
		logger.Warn().Int("status", resp.StatusCode).Str("error", gwErr.Message).Msg("Request rejected")
		return nil, gwErr
	}

	if c.out != nil {
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, protocolError(c.op, resp.StatusCode, "empty response from server", nil)
		}
		if err := json.Unmarshal(data, c.out); err != nil {
			return nil, protocolError(c.op, resp.StatusCode, messageFromBody(data), err)
		}
	}
	return data, nil
}
