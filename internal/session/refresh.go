package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/aelexs/todo-session-client/internal/apiclient"
	"github.com/aelexs/todo-session-client/internal/domain"
)

// RefreshPath is the endpoint, relative to the API base URL, that exchanges
// a refresh credential for a new access credential.
const RefreshPath = "auth/refresh"

// RefresherConfig holds configuration for a Refresher.
type RefresherConfig struct {
	BaseURL string

	// Transport carries the exchange. It must not be an Authenticator: the
	// refresh call is never itself authenticated or retried. Nil uses
	// http.DefaultTransport.
	Transport http.RoundTripper

	Timeout time.Duration // Zero uses domain.DefaultAPITimeout
	Logger  *slog.Logger
}

// Refresher exchanges a refresh credential for a new access credential.
// It persists nothing; callers decide what to do with the result.
type Refresher struct {
	api      apiclient.Endpoint
	endpoint string
	logger   *slog.Logger
	flight   singleflight.Group
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// NewRefresher creates a Refresher posting to {BaseURL}/auth/refresh.
func NewRefresher(cfg RefresherConfig) (*Refresher, error) {
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultAPITimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api, err := apiclient.New(cfg.BaseURL, &http.Client{Transport: transport, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("refresher: %w", err)
	}

	return &Refresher{
		api:      api,
		endpoint: api.URL(RefreshPath),
		logger:   logger,
	}, nil
}

// Refresh returns a new access credential for refreshToken. Errors wrap
// domain.ErrRefreshFailed.
//
// Callers presenting the same refresh credential while an exchange is in
// flight wait for that exchange instead of starting another. The shared
// exchange is not cancelled when one waiter gives up; each caller stops
// waiting when its own ctx is done.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrRefreshFailed, domain.ErrNoCredential)
	}

	ch := r.flight.DoChan(refreshToken, func() (any, error) {
		return r.exchange(context.WithoutCancel(ctx), refreshToken)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", domain.ErrRefreshFailed, ctx.Err())
	}
}

func (r *Refresher) exchange(ctx context.Context, refreshToken string) (string, error) {
	ctx, span := tracer.Start(ctx, "session.refresh")
	defer span.End()

	access, err := r.post(ctx, refreshToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		refreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failure")))
		r.logger.WarnContext(ctx, "credential refresh failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
	}

	refreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	r.logger.DebugContext(ctx, "credential refreshed")
	return access, nil
}

func (r *Refresher) post(ctx context.Context, refreshToken string) (string, error) {
	var out refreshResponse
	if err := r.api.Do(ctx, http.MethodPost, r.endpoint, refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("refresh response: %w", errors.Join(domain.ErrUnexpectedResponse, domain.ErrNoCredential))
	}
	return out.AccessToken, nil
}
