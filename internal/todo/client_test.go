package todo_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/todo-session-client/internal/credstore"
	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/errmap"
	"github.com/aelexs/todo-session-client/internal/session"
	"github.com/aelexs/todo-session-client/internal/todo"
)

type request struct {
	Method string
	Path   string
	Body   string
}

type fakeService struct {
	mu       sync.Mutex
	requests []request
	handler  http.HandlerFunc
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, request{Method: r.Method, Path: r.URL.EscapedPath(), Body: string(body)})
	f.mu.Unlock()
	f.handler(w, r)
}

func (f *fakeService) all() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request(nil), f.requests...)
}

func newClient(t *testing.T, handler http.HandlerFunc) (*todo.Client, *fakeService) {
	t.Helper()
	svc := &fakeService{handler: handler}
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	client, err := todo.NewClient(todo.Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return client, svc
}

func respond(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if v == nil {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

var milk = domain.Todo{ID: "t-1", Title: "Milk", Description: "Two litres", UserID: "u-1"}

func TestNewClient(t *testing.T) {
	t.Parallel()

	_, err := todo.NewClient(todo.Config{BaseURL: "http://localhost:3000"})
	require.ErrorIs(t, err, domain.ErrConfigRequired)

	_, err = todo.NewClient(todo.Config{BaseURL: "ftp://localhost", HTTPClient: http.DefaultClient})
	require.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestClient_List(t *testing.T) {
	t.Parallel()

	t.Run("fetches the user's todos", func(t *testing.T) {
		t.Parallel()
		client, svc := newClient(t, respond(http.StatusOK, []domain.Todo{milk}))

		got, err := client.List(context.Background(), "u-1")

		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{milk}, got)
		assert.Equal(t, []request{{Method: http.MethodGet, Path: "/todos/from/u-1"}}, svc.all())
	})

	t.Run("null list is empty", func(t *testing.T) {
		t.Parallel()
		client, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("null"))
		})

		got, err := client.List(context.Background(), "u-1")

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("escapes the user id", func(t *testing.T) {
		t.Parallel()
		client, svc := newClient(t, respond(http.StatusOK, []domain.Todo{}))

		_, err := client.List(context.Background(), "a/b")

		require.NoError(t, err)
		assert.Equal(t, "/todos/from/a%2Fb", svc.all()[0].Path)
	})

	t.Run("requires a user id", func(t *testing.T) {
		t.Parallel()
		client, svc := newClient(t, respond(http.StatusOK, nil))

		_, err := client.List(context.Background(), "")

		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, svc.all())
	})

	t.Run("server errors are returned to the caller", func(t *testing.T) {
		t.Parallel()
		client, _ := newClient(t, respond(http.StatusInternalServerError, map[string]string{"message": "db down"}))

		_, err := client.List(context.Background(), "u-1")

		require.ErrorIs(t, err, domain.ErrUnavailable)
		assert.Equal(t, "db down", errmap.UserMessage(err, domain.TodoLoadFailed))
	})
}

func TestClient_Get(t *testing.T) {
	t.Parallel()

	t.Run("fetches one todo", func(t *testing.T) {
		t.Parallel()
		client, svc := newClient(t, respond(http.StatusOK, milk))

		got, err := client.Get(context.Background(), "t-1")

		require.NoError(t, err)
		assert.Equal(t, milk, got)
		assert.Equal(t, "/todos/t-1", svc.all()[0].Path)
	})

	t.Run("missing todo is not found", func(t *testing.T) {
		t.Parallel()
		client, _ := newClient(t, respond(http.StatusNotFound, map[string]string{"message": "Todo not found"}))

		_, err := client.Get(context.Background(), "t-404")

		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed body is unexpected", func(t *testing.T) {
		t.Parallel()
		client, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{"))
		})

		_, err := client.Get(context.Background(), "t-1")

		require.ErrorIs(t, err, domain.ErrUnexpectedResponse)
	})
}

func TestClient_Create(t *testing.T) {
	t.Parallel()

	draft := domain.TodoDraft{Title: "Milk", Description: "Two litres", UserID: "u-1"}

	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusNoContent} {
		t.Run(http.StatusText(status)+" is success", func(t *testing.T) {
			t.Parallel()
			client, svc := newClient(t, respond(status, nil))

			require.NoError(t, client.Create(context.Background(), draft))

			reqs := svc.all()
			require.Len(t, reqs, 1)
			assert.Equal(t, http.MethodPost, reqs[0].Method)
			assert.Equal(t, "/todos", reqs[0].Path)
			assert.JSONEq(t, `{"title":"Milk","description":"Two litres","userId":"u-1"}`, reqs[0].Body)
		})
	}

	t.Run("invalid draft makes no request", func(t *testing.T) {
		t.Parallel()
		client, svc := newClient(t, respond(http.StatusCreated, nil))

		err := client.Create(context.Background(), domain.TodoDraft{Description: "x", UserID: "u-1"})

		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, svc.all())
	})

	t.Run("validation failure carries the server message", func(t *testing.T) {
		t.Parallel()
		client, _ := newClient(t, respond(http.StatusBadRequest, map[string]any{"message": []string{"title too long"}}))

		err := client.Create(context.Background(), draft)

		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, "title too long", errmap.UserMessage(err, domain.TodoCreateFailed))
	})
}

func TestClient_Update(t *testing.T) {
	t.Parallel()

	t.Run("puts the draft", func(t *testing.T) {
		t.Parallel()
		client, svc := newClient(t, respond(http.StatusOK, milk))

		err := client.Update(context.Background(), "t-1", domain.TodoDraft{Title: "Oat milk", Description: "One", UserID: "u-1"})

		require.NoError(t, err)
		reqs := svc.all()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodPut, reqs[0].Method)
		assert.Equal(t, "/todos/t-1", reqs[0].Path)
		assert.JSONEq(t, `{"title":"Oat milk","description":"One","userId":"u-1"}`, reqs[0].Body)
	})

	t.Run("requires an id", func(t *testing.T) {
		t.Parallel()
		client, svc := newClient(t, respond(http.StatusOK, nil))

		err := client.Update(context.Background(), " ", domain.TodoDraft{Title: "a", Description: "b", UserID: "u"})

		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, svc.all())
	})
}

func TestClient_SetCompleted(t *testing.T) {
	t.Parallel()

	client, svc := newClient(t, respond(http.StatusOK, nil))

	require.NoError(t, client.SetCompleted(context.Background(), milk, true))

	reqs := svc.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/todos/t-1", reqs[0].Path)
	assert.JSONEq(t, `{"title":"Milk","description":"Two litres","userId":"u-1","isCompleted":true}`, reqs[0].Body)
}

func TestClient_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deletes by id", func(t *testing.T) {
		t.Parallel()
		client, svc := newClient(t, respond(http.StatusNoContent, nil))

		require.NoError(t, client.Delete(context.Background(), "t-1"))

		assert.Equal(t, []request{{Method: http.MethodDelete, Path: "/todos/t-1"}}, svc.all())
	})

	t.Run("forbidden is returned", func(t *testing.T) {
		t.Parallel()
		client, _ := newClient(t, respond(http.StatusForbidden, nil))

		require.ErrorIs(t, client.Delete(context.Background(), "t-1"), domain.ErrForbidden)
	})
}

func TestClient_ThroughAuthenticator(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var refreshes int
	var mu sync.Mutex
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		refreshes++
		mu.Unlock()
		respond(http.StatusOK, map[string]string{"access_token": "fresh"})(w, nil)
	})
	mux.HandleFunc("GET /todos/from/{userId}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		respond(http.StatusOK, []domain.Todo{milk})(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := credstore.NewMemory()
	require.NoError(t, credstore.Save(context.Background(), store, credstore.Pair{Access: "stale", Refresh: "ref"}))
	refresher, err := session.NewRefresher(session.RefresherConfig{BaseURL: srv.URL, Transport: srv.Client().Transport})
	require.NoError(t, err)
	auth, err := session.NewAuthenticator(session.AuthenticatorConfig{
		Base:      srv.Client().Transport,
		Store:     store,
		Refresher: refresher,
	})
	require.NoError(t, err)
	client, err := todo.NewClient(todo.Config{BaseURL: srv.URL, HTTPClient: auth.Client(0)})
	require.NoError(t, err)

	got, err := client.List(context.Background(), "u-1")

	require.NoError(t, err)
	assert.Equal(t, []domain.Todo{milk}, got)
	mu.Lock()
	assert.Equal(t, 1, refreshes)
	mu.Unlock()
}
