package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/todo-session-client/internal/apiclient"
	"github.com/aelexs/todo-session-client/internal/domain"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "http", baseURL: "http://localhost:3000"},
		{name: "https with path", baseURL: "https://api.example.com/v2/"},
		{name: "surrounding whitespace", baseURL: "  http://localhost:3000 "},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "missing scheme", baseURL: "localhost:3000", wantErr: true},
		{name: "other scheme", baseURL: "ws://localhost:3000", wantErr: true},
		{name: "missing host", baseURL: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := apiclient.New(tt.baseURL, nil)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrConfigInvalid)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEndpoint_URL(t *testing.T) {
	t.Parallel()

	e, err := apiclient.New("https://api.example.com/v2/", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v2/auth/refresh", e.URL("auth/refresh"))
	assert.Equal(t, "https://api.example.com/v2/todos/from/u-1", e.URL("todos", "from", "u-1"))
}

func TestEndpoint_Do(t *testing.T) {
	t.Parallel()

	t.Run("sends json and decodes the reply", func(t *testing.T) {
		t.Parallel()
		var gotType, gotAccept string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotType = r.Header.Get("Content-Type")
			gotAccept = r.Header.Get("Accept")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		t.Cleanup(srv.Close)
		e, err := apiclient.New(srv.URL, srv.Client())
		require.NoError(t, err)

		var out struct{ OK bool }
		err = e.Do(context.Background(), http.MethodPost, e.URL("x"), map[string]int{"a": 1}, &out)

		require.NoError(t, err)
		assert.True(t, out.OK)
		assert.Equal(t, "application/json", gotType)
		assert.Equal(t, "application/json", gotAccept)
	})

	t.Run("status outside the accepted list fails", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))
		t.Cleanup(srv.Close)
		e, err := apiclient.New(srv.URL, srv.Client())
		require.NoError(t, err)

		err = e.Do(context.Background(), http.MethodGet, e.URL("x"), nil, nil, http.StatusOK)

		require.ErrorIs(t, err, domain.ErrUnexpectedResponse)
	})

	t.Run("no content skips decoding", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		t.Cleanup(srv.Close)
		e, err := apiclient.New(srv.URL, srv.Client())
		require.NoError(t, err)

		var out map[string]any
		require.NoError(t, e.Do(context.Background(), http.MethodDelete, e.URL("x"), nil, &out))
		assert.Nil(t, out)
	})
}
