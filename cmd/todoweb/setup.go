package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aelexs/todo-session-client/internal/app"
	"github.com/aelexs/todo-session-client/internal/server"
	"github.com/aelexs/todo-session-client/internal/session"
	"github.com/aelexs/todo-session-client/internal/web"
)

// setup is the todoweb composition root. It opens the credential store,
// wires the session components to the browser, registers the views, and
// starts a monitor that logs session changes made outside this process's
// requests (for example a logout from todoctl sharing the store).
func setup(ctx context.Context, deps server.SetupDeps) (func(context.Context) error, error) {
	cfg := deps.Config
	logger := deps.Logger

	// 1. Session components. The notifier and router reach the browser
	// through the request context.
	notifier := web.Notifier{Logger: logger}
	router := web.Router{Logger: logger}

	a, err := app.New(ctx, app.Deps{
		Config:   cfg,
		Logger:   logger,
		Notifier: notifier,
		Router:   router,
	})
	if err != nil {
		return nil, fmt.Errorf("todoweb setup: %w", err)
	}

	// 2. Views.
	handler, err := web.NewHandler(web.Config{
		Guard:    a.Guard,
		Accounts: a.Auth,
		Todos:    a.Todos,
		Notifier: notifier,
		Router:   router,
		Logger:   logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("todoweb setup: %w", err), a.Close())
	}
	handler.Register(deps.Mux)

	// 3. Session monitor.
	monitorCtx, stopMonitor := context.WithCancel(context.WithoutCancel(ctx))
	changes, unsubscribe := a.Store.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Guard.Watch(monitorCtx, changes, func(res session.Result, err error) {
			if err != nil {
				logger.Warn("session monitor check failed", slog.String("error", err.Error()))
				return
			}
			logger.Info("session state changed",
				slog.String("state", res.State.String()),
				slog.String("subject", res.Claims.Subject),
			)
		})
	}()

	logger.Info("todoweb setup complete",
		slog.String("api", cfg.API.BaseURL),
		slog.String("store", cfg.Store.Backend),
	)

	return func(context.Context) error {
		stopMonitor()
		unsubscribe()
		wg.Wait()
		return a.Close()
	}, nil
}
