// Package app is the composition root shared by the CLI and the local view
// host. It opens the configured credential store and builds the session
// components and API clients on top of it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aelexs/todo-session-client/internal/authapi"
	"github.com/aelexs/todo-session-client/internal/config"
	"github.com/aelexs/todo-session-client/internal/credential"
	"github.com/aelexs/todo-session-client/internal/credstore"
	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/redis"
	"github.com/aelexs/todo-session-client/internal/session"
	"github.com/aelexs/todo-session-client/internal/todo"
)

// Deps are the surface-specific collaborators. Config is required; the
// rest default sensibly.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Notifier session.Notifier
	Router   session.Router

	Clock     domain.Clock      // Nil uses the system clock
	Transport http.RoundTripper // Nil uses http.DefaultTransport
	Store     credstore.Store   // Nil opens the backend named in Config
}

// App holds the wired components.
type App struct {
	Store         *credstore.Observed
	Inspector     *credential.Inspector
	Refresher     *session.Refresher
	Authenticator *session.Authenticator
	Guard         *session.Guard
	Auth          *authapi.Client
	Todos         *todo.Client

	closers []func() error
}

// New wires an App. Close releases the store backend.
func New(ctx context.Context, d Deps) (*App, error) {
	if d.Config == nil {
		return nil, fmt.Errorf("app config: %w", domain.ErrConfigRequired)
	}
	cfg := d.Config
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := d.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	a := &App{}

	// 1. Credential store.
	base := d.Store
	if base == nil {
		s, closeFn, err := OpenStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open credential store: %w", err)
		}
		base = s
		if closeFn != nil {
			a.closers = append(a.closers, closeFn)
		}
	}
	a.Store = credstore.NewObserved(base)
	a.Inspector = credential.NewInspector(d.Clock)

	// 2. Session core.
	refresher, err := session.NewRefresher(session.RefresherConfig{
		BaseURL:   cfg.API.BaseURL,
		Transport: transport,
		Timeout:   cfg.API.Timeout,
		Logger:    logger,
	})
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	a.Refresher = refresher

	a.Authenticator, err = session.NewAuthenticator(session.AuthenticatorConfig{
		Base:      transport,
		Store:     a.Store,
		Refresher: refresher,
		Notifier:  d.Notifier,
		Router:    d.Router,
		Logger:    logger,
	})
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	a.Guard, err = session.NewGuard(session.GuardConfig{
		Store:     a.Store,
		Inspector: a.Inspector,
		Refresher: refresher,
		Notifier:  d.Notifier,
		Router:    d.Router,
		Logger:    logger,
		OnTransition: func(from, to session.State) {
			logger.Debug("session state", slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	// 3. API clients. Sign-in and sign-up go out without the Authenticator.
	a.Auth, err = authapi.NewClient(authapi.Config{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Transport: transport, Timeout: cfg.API.Timeout},
		Store:      a.Store,
		Logger:     logger,
	})
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	a.Todos, err = todo.NewClient(todo.Config{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: a.Authenticator.Client(cfg.API.Timeout),
		Logger:     logger,
	})
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	return a, nil
}

// Close releases store resources.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore opens the backend named by cfg.Store.Backend. The returned close
// function is nil when there is nothing to release.
func OpenStore(ctx context.Context, cfg *config.Config) (credstore.Store, func() error, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return credstore.NewMemory(), nil, nil

	case config.StoreFile:
		path, err := cfg.StorePath()
		if err != nil {
			return nil, nil, err
		}
		return credstore.NewFile(path), nil, nil

	case config.StoreRedis:
		client := redis.NewClient(redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			ReadTimeout:  cfg.Redis.Timeout,
			WriteTimeout: cfg.Redis.Timeout,
		})
		pingCtx, cancel := context.WithTimeout(ctx, domain.RedisTimeout)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			return nil, nil, errors.Join(err, client.Close())
		}
		return credstore.NewRedis(client.RDB, cfg.Store.KeyPrefix), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: store.backend %q", domain.ErrConfigInvalid, cfg.Store.Backend)
	}
}
