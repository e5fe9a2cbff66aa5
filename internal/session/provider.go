package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/eventapi"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

// ErrUnauthenticated is returned by operations that need a signed-in user.
var ErrUnauthenticated = errors.New("not signed in")

type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Provider owns the current session and keeps the API client's bearer token in step with it.
type Provider struct {
	API    *eventapi.Client
	Store  Store
	Logger *logrus.Logger

	mu      sync.RWMutex
	status  Status
	current *Session
	now     func() time.Time
}

func NewProvider(api *eventapi.Client, store Store, logger *logrus.Logger) *Provider {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Provider{API: api, Store: store, Logger: logger, status: StatusLoading, now: time.Now}
}

// Init restores a stored session. Expired or rejected sessions are dropped.
// A backend that cannot be reached leaves the stored session in place.
func (p *Provider) Init(ctx context.Context) error {
	s, err := p.Store.Load()
	if err != nil {
		p.set(nil)
		return err
	}
	if s == nil || s.Token == "" || s.Expired(p.now()) {
		if s != nil {
			_ = p.Store.Clear()
		}
		p.set(nil)
		return nil
	}

	p.API.SetToken(s.Token)
	u, err := p.API.Me(ctx)
	switch {
	case err == nil:
		s.User = *u
	case errors.Is(err, eventapi.ErrUnauthorized):
		p.Logger.WithField("user_id", s.User.ID).Info("stored session rejected")
		_ = p.Store.Clear()
		p.set(nil)
		return nil
	default:
		p.Logger.WithError(err).Warn("could not verify stored session")
	}
	p.set(s)
	return nil
}

// SignIn authenticates with email and password.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	res, err := p.API.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return p.adopt(res)
}

// SignInWithGoogle exchanges a provider-verified identity for a session.
func (p *Provider) SignInWithGoogle(ctx context.Context, id eventapi.GoogleIdentity, secret string) (*Session, error) {
	res, err := p.API.GoogleSignIn(ctx, id, secret)
	if err != nil {
		return nil, err
	}
	return p.adopt(res)
}

// SignOut tears the session down locally even when the backend call fails.
func (p *Provider) SignOut(ctx context.Context) error {
	if p.Status() == StatusAuthenticated {
		if err := p.API.Logout(ctx); err != nil {
			p.Logger.WithError(err).Warn("remote logout failed")
		}
	}
	p.set(nil)
	return p.Store.Clear()
}

// Current returns the active session, if any.
func (p *Provider) Current() (*Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil, false
	}
	cp := *p.current
	return &cp, true
}

// User returns the signed-in identity or ErrUnauthenticated.
func (p *Provider) User() (entity.Identity, error) {
	s, ok := p.Current()
	if !ok {
		return entity.Identity{}, ErrUnauthenticated
	}
	return s.User, nil
}

func (p *Provider) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Provider) adopt(res *eventapi.AuthResult) (*Session, error) {
	s := &Session{User: res.User, Token: res.Token, ExpiresAt: res.ExpiresAt}
	if err := p.Store.Save(s); err != nil {
		return nil, err
	}
	p.set(s)
	p.Logger.WithField("user_id", s.User.ID).Debug("signed in")
	cp := *s
	return &cp, nil
}

func (p *Provider) set(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = s
	if s == nil {
		p.status = StatusUnauthenticated
		p.API.SetToken("")
		return
	}
	p.status = StatusAuthenticated
	p.API.SetToken(s.Token)
}
