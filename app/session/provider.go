package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"todo-client/app/models"
)

// Well-known keys under which the session is persisted.
const (
	TokenKey = "auth_token"
	UserKey  = "user"
)

// ErrNoSession is returned by a Store that holds nothing.
var ErrNoSession = errors.New("no stored session")

// Session is the persisted credential plus the last known profile.
type Session struct {
	Token string       `json:"auth_token"`
	User  *models.User `json:"user,omitempty"`
}

// Store persists a Session.
type Store interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// Provider owns the bearer credential. It reads through to its Store once per
// process and serves the cached value afterwards.
type Provider struct {
	store Store
	log   zerolog.Logger

	mu      sync.RWMutex
	loaded  bool
	current Session
}

// NewProvider creates a Provider backed by store.
func NewProvider(store Store, log zerolog.Logger) *Provider {
	return &Provider{
		store: store,
		log:   log.With().Str("component", "session").Logger(),
	}
}

// Initialize loads the stored session. Calling it again is a no-op.
func (p *Provider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initLocked(ctx)
}

func (p *Provider) initLocked(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	s, err := p.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSession):
		s = Session{}
	case err != nil:
		return fmt.Errorf("load session: %w", err)
	}
	p.current = s
	p.loaded = true
	p.log.Debug().Bool("authenticated", s.Token != "").Msg("Session loaded")
	return nil
}

// Get returns the current token, loading it on first use. An empty token
// means no one is signed in.
func (p *Provider) Get(ctx context.Context) (string, error) {
	p.mu.RLock()
	if p.loaded {
		token := p.current.Token
		p.mu.RUnlock()
		return token, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.initLocked(ctx); err != nil {
		return "", err
	}
	return p.current.Token, nil
}

// User returns the last known profile, if any.
func (p *Provider) User(ctx context.Context) (*models.User, error) {
	if _, err := p.Get(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current.User == nil {
		return nil, nil
	}
	u := *p.current.User
	return &u, nil
}

// Set persists s and makes it current.
func (p *Provider) Set(ctx context.Context, s Session) error {
	if s.Token == "" {
		return errors.New("session token is empty")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	p.current = s
	p.loaded = true
	p.log.Debug().Msg("Session stored")
	return nil
}

// Clear removes the session from memory and from the store.
func (p *Provider) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = Session{}
	p.loaded = true
	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.log.Debug().Msg("Session cleared")
	return nil
}
