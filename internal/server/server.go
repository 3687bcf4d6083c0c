// Package server provides the lifecycle runner for the local view host:
// signal handling, config loading, observability init, health checks, and
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aelexs/todo-session-client/internal/config"
	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/observability"
)

// Params configures a service's lifecycle runner.
type Params struct {
	// Name identifies the service (e.g. "todoweb").
	Name string

	// PortFromConfig extracts the HTTP port for this service from config.
	PortFromConfig func(cfg *config.Config) int

	// Setup is the service composition root. It registers routes on deps.Mux;
	// the returned cleanup, if any, runs after the HTTP server has drained.
	Setup func(ctx context.Context, deps SetupDeps) (cleanup func(context.Context) error, err error)
}

// SetupDeps is what Run hands to Params.Setup.
type SetupDeps struct {
	Config *config.Config
	Logger *slog.Logger
	Mux    *http.ServeMux
}

// Run executes the full service lifecycle: signal handling, config loading,
// observability initialization, HTTP server with health checks, and graceful
// shutdown. If ln is non-nil, it is used instead of creating a new listener
// from config (enables port-0 testing).
func Run(ctx context.Context, p Params, ln net.Listener) error {
	// Signal-based cancellation: ctx.Done() closes on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize structured logging with secret redaction
	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: p.Name,
		Environment: cfg.Environment,
	})

	// --- Startup order: otel -> routes -> HTTP server ---

	serviceName := p.Name
	if cfg.OTEL.ServiceName != "" {
		serviceName = cfg.OTEL.ServiceName
	}
	providers, err := observability.Init(ctx, observability.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	flushTelemetry := func() {
		otelCtx, otelCancel := context.WithTimeout(context.Background(), domain.ShutdownOTELTimeout)
		defer otelCancel()
		if shutdownErr := providers.Shutdown(otelCtx); shutdownErr != nil {
			logger.Error("failed to shutdown telemetry", slog.String("error", shutdownErr.Error()))
		}
	}

	// Health check shutdown coordination via atomic flag.
	var shuttingDown atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if shuttingDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"shutting_down","service":%q}`, p.Name)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":%q}`, p.Name)
	})

	cleanup := func(context.Context) error { return nil }
	if p.Setup != nil {
		c, setupErr := p.Setup(ctx, SetupDeps{Config: cfg, Logger: logger, Mux: mux})
		if setupErr != nil {
			flushTelemetry()
			return fmt.Errorf("setup %s: %w", p.Name, setupErr)
		}
		if c != nil {
			cleanup = c
		}
	}

	// Bind listener (use injected listener or create from config).
	if ln == nil {
		ln, err = (&net.ListenConfig{}).Listen(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", p.PortFromConfig(cfg)))
		if err != nil {
			_ = cleanup(context.Background())
			flushTelemetry()
			return fmt.Errorf("listen: %w", err)
		}
	}

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: domain.DefaultAPITimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Structured concurrency via errgroup ---
	g, ctx := errgroup.WithContext(ctx)

	// Goroutine 1: Serve HTTP
	g.Go(func() error {
		logger.Info("starting HTTP server",
			slog.String("addr", ln.Addr().String()),
			slog.String("environment", cfg.Environment),
		)
		if serveErr := server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	})

	// Goroutine 2: Shutdown trigger. Order is the reverse of startup:
	// HTTP server -> service resources -> telemetry.
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("received shutdown signal, starting graceful shutdown")

		// Health checks return 503 from here on
		shuttingDown.Store(true)

		httpCtx, httpCancel := context.WithTimeout(context.Background(), domain.ShutdownHTTPTimeout)
		defer httpCancel()
		if shutdownErr := server.Shutdown(httpCtx); shutdownErr != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", shutdownErr.Error()))
		}

		if cleanupErr := cleanup(httpCtx); cleanupErr != nil {
			logger.Error("service cleanup error", slog.String("error", cleanupErr.Error()))
		}
		flushTelemetry()

		logger.Info("shutdown complete")
		return nil
	})

	return g.Wait()
}
