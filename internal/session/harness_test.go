package session_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aelexs/todo-session-client/internal/credential"
	"github.com/aelexs/todo-session-client/internal/credential/credentialtest"
	"github.com/aelexs/todo-session-client/internal/credstore"
	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/domain/domaintest"
	"github.com/aelexs/todo-session-client/internal/session"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// apiServer fakes the remote API: POST /auth/refresh and a protected
// /resource endpoint. Handlers are swapped per test.
type apiServer struct {
	*httptest.Server

	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32

	mu            sync.Mutex
	refreshBodies []string
	authHeaders   []string
	requestIDs    []string
	resourceBody  []string
}

func newAPIServer(t *testing.T, refresh, resource http.HandlerFunc) *apiServer {
	t.Helper()

	api := &apiServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		api.refreshCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.refreshBodies = append(api.refreshBodies, string(body))
		api.mu.Unlock()
		if refresh == nil {
			http.Error(w, "unexpected refresh", http.StatusTeapot)
			return
		}
		refresh(w, r)
	})
	mux.HandleFunc("/resource", func(w http.ResponseWriter, r *http.Request) {
		api.resourceCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.authHeaders = append(api.authHeaders, r.Header.Get("Authorization"))
		api.requestIDs = append(api.requestIDs, r.Header.Get(session.RequestIDHeader))
		api.resourceBody = append(api.resourceBody, string(body))
		api.mu.Unlock()
		if resource == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		resource(w, r)
	})

	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func (a *apiServer) headers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.authHeaders...)
}

func (a *apiServer) ids() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requestIDs...)
}

func (a *apiServer) bodies() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.resourceBody...)
}

func issue(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	}
}

func fail(status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": message, "statusCode": status})
	}
}

// acceptOnly answers 200 when the bearer token is token, 401 otherwise.
func acceptOnly(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

type recordingNotifier struct {
	mu        sync.Mutex
	errors    []string
	successes []string
}

func (n *recordingNotifier) Error(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) Success(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) errorMessages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

type redirect struct {
	Path string
	Opts session.RedirectOptions
}

type recordingRouter struct {
	mu        sync.Mutex
	redirects []redirect
}

func (r *recordingRouter) Redirect(_ context.Context, path string, opts session.RedirectOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects = append(r.redirects, redirect{Path: path, Opts: opts})
}

func (r *recordingRouter) all() []redirect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]redirect(nil), r.redirects...)
}

var signInRedirect = redirect{Path: domain.SignInPath, Opts: session.RedirectOptions{Replace: true}}

// fixture wires the session components against one fake API.
type fixture struct {
	api       *apiServer
	clock     *domaintest.FakeClock
	minter    *credentialtest.Minter
	inspector *credential.Inspector
	store     credstore.Store
	notifier  *recordingNotifier
	router    *recordingRouter
	refresher *session.Refresher
}

func newFixture(t *testing.T, refresh, resource http.HandlerFunc) *fixture {
	t.Helper()

	clock := domaintest.NewFakeClock(testNow)
	api := newAPIServer(t, refresh, resource)
	refresher, err := session.NewRefresher(session.RefresherConfig{
		BaseURL:   api.URL,
		Transport: api.Client().Transport,
	})
	require.NoError(t, err)

	return &fixture{
		api:       api,
		clock:     clock,
		minter:    credentialtest.NewMinter(clock),
		inspector: credential.NewInspector(clock),
		store:     credstore.NewMemory(),
		notifier:  &recordingNotifier{},
		router:    &recordingRouter{},
		refresher: refresher,
	}
}

func (f *fixture) seed(t *testing.T, access, refresh string) {
	t.Helper()
	ctx := context.Background()
	if access != "" {
		require.NoError(t, f.store.Set(ctx, domain.AccessCredentialKey, access))
	}
	if refresh != "" {
		require.NoError(t, f.store.Set(ctx, domain.RefreshCredentialKey, refresh))
	}
}

func (f *fixture) pair(t *testing.T) credstore.Pair {
	t.Helper()
	p, err := credstore.Load(context.Background(), f.store)
	require.NoError(t, err)
	return p
}

func (f *fixture) guard(t *testing.T, onTransition func(from, to session.State)) *session.Guard {
	t.Helper()
	g, err := session.NewGuard(session.GuardConfig{
		Store:        f.store,
		Inspector:    f.inspector,
		Refresher:    f.refresher,
		Notifier:     f.notifier,
		Router:       f.router,
		OnTransition: onTransition,
	})
	require.NoError(t, err)
	return g
}

func (f *fixture) client(t *testing.T) *http.Client {
	t.Helper()
	a, err := session.NewAuthenticator(session.AuthenticatorConfig{
		Base:      f.api.Client().Transport,
		Store:     f.store,
		Refresher: f.refresher,
		Notifier:  f.notifier,
		Router:    f.router,
	})
	require.NoError(t, err)
	return a.Client(5 * time.Second)
}
