package session

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/aelexs/todo-session-client/internal/credential"
	"github.com/aelexs/todo-session-client/internal/credstore"
	"github.com/aelexs/todo-session-client/internal/domain"
)

// GuardConfig holds dependencies for a Guard.
type GuardConfig struct {
	Store     credstore.Store
	Inspector *credential.Inspector // Nil uses the system clock
	Refresher CredentialRefresher
	Notifier  Notifier
	Router    Router
	Logger    *slog.Logger

	// OnTransition, if set, is called for every state change of a check.
	OnTransition func(from, to State)
}

// Result is the outcome of one Guard check.
type Result struct {
	State State

	// Claims of the access credential. Set only when State is Authenticated.
	Claims credential.Claims

	// Refreshed reports whether the check obtained a new access credential.
	Refreshed bool
}

// Guard decides whether protected content may render.
type Guard struct {
	store        credstore.Store
	inspector    *credential.Inspector
	refresher    CredentialRefresher
	term         terminator
	logger       *slog.Logger
	onTransition func(from, to State)
}

// NewGuard creates a Guard. Store and Refresher are required.
func NewGuard(cfg GuardConfig) (*Guard, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("guard store: %w", domain.ErrConfigRequired)
	}
	if cfg.Refresher == nil {
		return nil, fmt.Errorf("guard refresher: %w", domain.ErrConfigRequired)
	}
	inspector := cfg.Inspector
	if inspector == nil {
		inspector = credential.NewInspector(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Guard{
		store:        cfg.Store,
		inspector:    inspector,
		refresher:    cfg.Refresher,
		term:         newTerminator(cfg.Store, cfg.Notifier, cfg.Router, logger),
		logger:       logger,
		onTransition: cfg.OnTransition,
	}, nil
}

// Check classifies the stored session and acts on it:
//
//   - valid access credential: Authenticated, no network call.
//   - refreshable: one refresh; the new access credential is stored and the
//     result is Authenticated.
//   - anything else: the session ends and the result is Dead.
//
// The returned error is reserved for store failures that prevent
// classification; a Dead session is not an error.
func (g *Guard) Check(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "session.guard.check")
	defer span.End()

	res, err := g.evaluate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "guard check failed")
		return res, err
	}

	span.SetAttributes(
		attribute.String("session.state", res.State.String()),
		attribute.Bool("session.refreshed", res.Refreshed),
	)
	guardChecksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("state", res.State.String())))
	return res, nil
}

func (g *Guard) evaluate(ctx context.Context) (Result, error) {
	pair, err := credstore.Load(ctx, g.store)
	if err != nil {
		return Result{State: Unauthenticated}, fmt.Errorf("guard check: %w", err)
	}

	switch Classify(pair, g.inspector) {
	case ConditionValid:
		claims, _ := g.inspector.Live(pair.Access)
		g.transition(Unauthenticated, Authenticated)
		return Result{State: Authenticated, Claims: claims}, nil

	case ConditionRefreshable:
		g.transition(Unauthenticated, Refreshing)
		trace.SpanFromContext(ctx).AddEvent("refreshing")

		out, err := renew(ctx, g.refresher, g.store, pair.Refresh)
		if err != nil {
			if ctx.Err() != nil {
				// The check was abandoned; the refresh completes detached
				// and the session is left to it.
				return Result{State: Refreshing}, fmt.Errorf("guard refresh: %w", ctx.Err())
			}
			g.logger.WarnContext(ctx, "guard refresh failed", slog.String("error", err.Error()))
			return g.die(ctx, Refreshing, "refresh_failed", true), nil
		}
		if out.storeErr != nil {
			g.logger.ErrorContext(ctx, "store refreshed credential", slog.String("error", out.storeErr.Error()))
			return g.die(ctx, Refreshing, "store_failed", true), nil
		}

		g.transition(Refreshing, Authenticated)
		return Result{State: Authenticated, Claims: refreshedClaims(out.access, pair.Refresh), Refreshed: true}, nil

	default:
		reason := "expired"
		if pair.Empty() {
			reason = "no_credentials"
		}
		return g.die(ctx, Unauthenticated, reason, !pair.Empty()), nil
	}
}

// refreshedClaims reads the claims of a just-issued access credential. The
// server is trusted for it even when its payload is opaque; the subject then
// comes from the refresh credential, which names the same account.
func refreshedClaims(access, refresh string) credential.Claims {
	if claims, err := credential.Decode(access); err == nil && claims.Subject != "" {
		return claims
	}
	rc, err := credential.Decode(refresh)
	if err != nil {
		return credential.Claims{}
	}
	return credential.Claims{Subject: rc.Subject}
}

func (g *Guard) die(ctx context.Context, from State, reason string, clear bool) Result {
	g.term.end(ctx, reason, clear)
	g.transition(from, Dead)
	return Result{State: Dead}
}

func (g *Guard) transition(from, to State) {
	if from == to {
		return
	}
	g.logger.Debug("guard transition", slog.String("from", from.String()), slog.String("to", to.String()))
	if g.onTransition != nil {
		g.onTransition(from, to)
	}
}

// Protect runs render only when Check ends Authenticated. A Dead session
// returns domain.ErrSessionExpired without calling render; the user has
// already been notified and redirected.
func (g *Guard) Protect(ctx context.Context, render func(ctx context.Context, res Result) error) error {
	res, err := g.Check(ctx)
	if err != nil {
		return err
	}
	if res.State != Authenticated {
		return domain.ErrSessionExpired
	}
	return render(ctx, res)
}

// Watch runs Check once, then again each time changes fires, until ctx is
// done or changes is closed. fn is called with the first result and with
// every result whose state or subject differs from the previous one.
//
// Store writes made by a check itself are not re-evaluated: a signal that
// finds the store empty after the session died is ignored, and the signal
// raised by storing a refreshed credential is consumed.
func (g *Guard) Watch(ctx context.Context, changes <-chan struct{}, fn func(Result, error)) {
	last, err := g.Check(ctx)
	if err == nil && last.Refreshed {
		consume(changes)
	}
	fn(last, err)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
		}

		if last.State == Dead {
			pair, err := credstore.Load(ctx, g.store)
			if err == nil && pair.Empty() {
				continue
			}
		}

		res, err := g.Check(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			fn(res, err)
			continue
		}
		if res.Refreshed {
			consume(changes)
		}
		if res.State != last.State || res.Claims.Subject != last.Claims.Subject {
			fn(res, nil)
		}
		last = res
	}
}

func consume(changes <-chan struct{}) {
	select {
	case <-changes:
	default:
	}
}
