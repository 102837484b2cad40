// Package auth tracks the signed-in user: restoring the stored session at
// startup, signing in through a Provider and signing out.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tgienger/apolo/internal/logger"
	"github.com/tgienger/apolo/internal/models"
)

// ProfileStore receives the profile of every user who signs in
type ProfileStore interface {
	UpsertProfile(ctx context.Context, u models.User) error
}

// Gateway owns the current session. It starts in the loading state until
// Init has finished or timed out.
type Gateway struct {
	provider    Provider
	sessions    *SessionStore
	profiles    ProfileStore
	initTimeout time.Duration

	mu        sync.RWMutex
	user      *models.User
	loading   bool
	listeners map[int]func(*models.User)
	nextID    int
}

// NewGateway wires a gateway. profiles may be nil.
func NewGateway(p Provider, sessions *SessionStore, profiles ProfileStore, initTimeout time.Duration) *Gateway {
	if initTimeout <= 0 {
		initTimeout = 5 * time.Second
	}
	return &Gateway{
		provider:    p,
		sessions:    sessions,
		profiles:    profiles,
		initTimeout: initTimeout,
		loading:     true,
		listeners:   map[int]func(*models.User){},
	}
}

// Init restores the stored session. It never fails: a missing, expired or
// slow session leaves the gateway signed out.
func (g *Gateway) Init(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, g.initTimeout)
	defer cancel()

	type result struct {
		claims *Claims
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := g.sessions.Load()
		ch <- result{c, err}
	}()

	var user *models.User
	select {
	case r := <-ch:
		switch {
		case r.err == nil:
			u := r.claims.User()
			user = &u
			logger.Info().Str("user", u.Email).Msg("session restored")
		case errors.Is(r.err, ErrNoSession):
			logger.Debug().Msg("no stored session")
		default:
			logger.Warn().Err(r.err).Msg("stored session rejected")
		}
	case <-ctx.Done():
		logger.Warn().Dur("timeout", g.initTimeout).Msg("session restore timed out, continuing signed out")
	}

	g.set(user, false)
}

// CurrentUser returns a copy of the signed-in user, or nil
func (g *Gateway) CurrentUser() *models.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}

// Loading reports whether Init is still running
func (g *Gateway) Loading() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loading
}

// SignIn authenticates through the provider, stores the session and
// publishes the profile
func (g *Gateway) SignIn(ctx context.Context, hint string) (models.User, error) {
	u, err := g.provider.Authenticate(ctx, hint)
	if err != nil {
		return models.User{}, err
	}
	if g.profiles != nil {
		if err := g.profiles.UpsertProfile(ctx, u); err != nil {
			logger.Warn().Err(err).Str("user", u.ID).Msg("profile upsert failed")
		}
	}
	if err := g.sessions.Save(u, g.provider.Name()); err != nil {
		return models.User{}, err
	}
	logger.Info().Str("user", u.Email).Str("provider", g.provider.Name()).Msg("signed in")
	g.set(&u, false)
	return u, nil
}

// SignOut forgets the session. Failing to delete the session file is logged
// and otherwise ignored.
func (g *Gateway) SignOut() {
	if err := g.sessions.Clear(); err != nil {
		logger.Warn().Err(err).Msg("sign out: clearing session")
	}
	g.set(nil, false)
}

// OnChange registers fn to be called with the new user (nil when signed
// out) after every change. The returned function unregisters it.
func (g *Gateway) OnChange(fn func(*models.User)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

func (g *Gateway) set(u *models.User, loading bool) {
	g.mu.Lock()
	g.user = u
	g.loading = loading
	fns := make([]func(*models.User), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		if u == nil {
			fn(nil)
			continue
		}
		cp := *u
		fn(&cp)
	}
}
