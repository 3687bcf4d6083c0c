package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/todo-session-client/internal/credstore"
	"github.com/aelexs/todo-session-client/internal/domain"
)

// RequestIDHeader carries a per-request correlation id. A retried request
// keeps the id of the original.
const RequestIDHeader = "X-Request-ID"

// AuthenticatorConfig holds dependencies for an Authenticator.
type AuthenticatorConfig struct {
	Base      http.RoundTripper // Nil uses http.DefaultTransport
	Store     credstore.Store
	Refresher CredentialRefresher
	Notifier  Notifier
	Router    Router
	Logger    *slog.Logger
}

// Authenticator is an http.RoundTripper that attaches the stored access
// credential as a bearer token. When the server answers 401 it refreshes the
// access credential and resubmits the request exactly once. If the refresh
// fails the session ends and RoundTrip returns an error wrapping
// domain.ErrUnauthorized and domain.ErrRefreshFailed.
//
// The store is read on every request, so a credential written by a refresh
// or a sign-in applies to all later requests and a cleared store stops
// attaching one.
type Authenticator struct {
	base      http.RoundTripper
	store     credstore.Store
	refresher CredentialRefresher
	term      terminator
	logger    *slog.Logger
}

var _ http.RoundTripper = (*Authenticator)(nil)

// NewAuthenticator creates an Authenticator. Store and Refresher are required.
func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("authenticator store: %w", domain.ErrConfigRequired)
	}
	if cfg.Refresher == nil {
		return nil, fmt.Errorf("authenticator refresher: %w", domain.ErrConfigRequired)
	}
	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Authenticator{
		base:      base,
		store:     cfg.Store,
		refresher: cfg.Refresher,
		term:      newTerminator(cfg.Store, cfg.Notifier, cfg.Router, logger),
		logger:    logger,
	}, nil
}

// Client returns an *http.Client using the Authenticator as its transport.
// A zero timeout uses domain.DefaultAPITimeout.
func (a *Authenticator) Client(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = domain.DefaultAPITimeout
	}
	return &http.Client{Transport: a, Timeout: timeout}
}

type retriedKey struct{}

func withRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func isRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// RoundTrip implements http.RoundTripper.
func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	out, err := a.prepare(req)
	if err != nil {
		return nil, err
	}

	resp, err := a.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if isRetried(out.Context()) {
		requestRetries.Add(out.Context(), 1, metric.WithAttributes(attribute.String("outcome", "rejected_again")))
		return resp, nil
	}

	drain(resp)
	return a.retry(out)
}

// prepare clones req with the access credential and a request id attached.
// A body without GetBody is buffered so it can be replayed.
func (a *Authenticator) prepare(req *http.Request) (*http.Request, error) {
	ctx := req.Context()
	out := req.Clone(ctx)

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("buffer request body: %w", err)
		}
		out.Body = io.NopCloser(bytes.NewReader(data))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}

	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}

	access, err := credstore.Access(ctx, a.store)
	if err != nil {
		a.logger.WarnContext(ctx, "read access credential", slog.String("error", err.Error()))
	}
	if access != "" {
		out.Header.Set("Authorization", "Bearer "+access)
	}
	return out, nil
}

// retry refreshes the access credential and resubmits req once. The second
// response is returned as-is whatever its status.
func (a *Authenticator) retry(req *http.Request) (*http.Response, error) {
	ctx, span := tracer.Start(withRetried(req.Context()), "session.request.retry")
	defer span.End()

	access, err := a.refresh(ctx)
	if err != nil {
		span.RecordError(err)
		if ctx.Err() != nil {
			// The caller gave up; the refresh itself carries on detached.
			span.SetStatus(codes.Error, "cancelled")
			requestRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "cancelled")))
			return nil, err
		}
		span.SetStatus(codes.Error, "refresh failed")
		requestRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "refresh_failed")))
		a.term.end(ctx, "refresh_failed", true)
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	next := req.Clone(ctx)
	next.Header.Set("Authorization", "Bearer "+access)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		next.Body = body
	}

	resp, err := a.base.RoundTrip(next)
	if err != nil {
		span.RecordError(err)
		requestRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "transport_error")))
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	requestRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "resubmitted")))
	return resp, nil
}

func (a *Authenticator) refresh(ctx context.Context) (string, error) {
	refreshToken, err := credstore.Refresh(ctx, a.store)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
	}
	out, err := renew(ctx, a.refresher, a.store, refreshToken)
	switch {
	case err != nil && ctx.Err() != nil:
		return "", fmt.Errorf("refresh access credential: %w", ctx.Err())
	case err != nil && errors.Is(err, domain.ErrRefreshFailed):
		return "", err
	case err != nil:
		return "", fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
	}
	if out.storeErr != nil {
		a.logger.ErrorContext(ctx, "store refreshed credential", slog.String("error", out.storeErr.Error()))
	}
	return out.access, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, domain.MaxErrorBodyBytes))
	_ = resp.Body.Close()
}
