package session

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/todo-session-client/internal/credstore"
	"github.com/aelexs/todo-session-client/internal/domain"
)

// terminator ends a session: clear, notify, redirect. The Guard and the
// Authenticator share one so both paths behave identically.
type terminator struct {
	store    credstore.Store
	notifier Notifier
	router   Router
	logger   *slog.Logger
}

func newTerminator(store credstore.Store, n Notifier, r Router, logger *slog.Logger) terminator {
	if logger == nil {
		logger = slog.Default()
	}
	if n == nil {
		n = LogNotifier{Logger: logger}
	}
	if r == nil {
		r = LogRouter{Logger: logger}
	}
	return terminator{store: store, notifier: n, router: r, logger: logger}
}

// end tears the session down. When clear is false the store is left alone,
// which is used when it is already empty. A failing clear is logged and does
// not stop the notice or the redirect.
func (t terminator) end(ctx context.Context, reason string, clear bool) {
	if clear {
		if err := credstore.Clear(ctx, t.store); err != nil {
			t.logger.ErrorContext(ctx, "clear credentials after session end",
				slog.String("reason", reason),
				slog.String("error", err.Error()),
			)
		}
	}

	sessionsEndedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	t.logger.InfoContext(ctx, "session ended", slog.String("reason", reason))

	t.notifier.Error(ctx, domain.SessionExpiredMessage)
	t.router.Redirect(ctx, domain.SignInPath, RedirectOptions{Replace: true})
}
