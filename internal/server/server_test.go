package server_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aelexs/todo-session-client/internal/config"
	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/server"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testParams() server.Params {
	return server.Params{
		Name:           "testservice",
		PortFromConfig: func(_ *config.Config) int { return 0 },
	}
}

func TestRunGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ln := newTestListener(t)
	addr := ln.Addr().String()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx, testParams(), ln)
	}()

	waitForHealthy(t, addr)

	start := time.Now()
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
		assert.Less(t, time.Since(start), domain.GracefulShutdownTimeout)
	case <-time.After(domain.GracefulShutdownTimeout + 5*time.Second):
		t.Fatal("shutdown did not complete within budget")
	}
}

func TestRunServesSetupRoutes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ln := newTestListener(t)
	addr := ln.Addr().String()

	var cleaned atomic.Bool
	var gotPort atomic.Int64
	p := testParams()
	p.Setup = func(_ context.Context, deps server.SetupDeps) (func(context.Context) error, error) {
		gotPort.Store(int64(deps.Config.Web.HTTPPort))
		assert.NotNil(t, deps.Logger)
		deps.Mux.HandleFunc("GET /hello", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "hi")
		})
		return func(context.Context) error {
			cleaned.Store(true)
			return nil
		}, nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx, p, ln)
	}()

	waitForHealthy(t, addr)

	resp, err := httpGet(t, fmt.Sprintf("http://%s/hello", addr))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "hi", string(body))
	assert.EqualValues(t, 8080, gotPort.Load())

	cancel()
	require.NoError(t, <-errCh)
	assert.True(t, cleaned.Load())
}

func TestRunSetupFailure(t *testing.T) {
	ln := newTestListener(t)
	t.Cleanup(func() { _ = ln.Close() })

	setupErr := errors.New("store unreachable")
	p := testParams()
	p.Setup = func(context.Context, server.SetupDeps) (func(context.Context) error, error) {
		return nil, setupErr
	}

	err := server.Run(context.Background(), p, ln)

	require.ErrorIs(t, err, setupErr)
	assert.Contains(t, err.Error(), "setup testservice")
}

func TestRunConfigFailure(t *testing.T) {
	t.Setenv("TODO_API__BASE_URL", "not a url")

	err := server.Run(context.Background(), testParams(), nil)

	require.ErrorIs(t, err, domain.ErrConfigInvalid)
}

// newTestListener creates a TCP listener on an OS-assigned port.
func newTestListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create test listener: %v", err)
	}
	return ln
}

// waitForHealthy polls the health endpoint until it returns 200.
func waitForHealthy(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := httpGet(t, fmt.Sprintf("http://%s/healthz", addr))
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server at %s not healthy within 5s", addr)
}

// httpGet performs an HTTP GET with a background context (satisfies noctx linter).
func httpGet(t *testing.T, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	return client.Do(req)
}
