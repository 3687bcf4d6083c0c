package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/errmap"
	"github.com/aelexs/todo-session-client/internal/session"
)

// withExchangeAndLogging attaches the request exchange and logs one line per
// request.
func (h *Handler) withExchangeAndLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		ex := &exchange{w: sw}
		r = r.WithContext(withExchange(r.Context(), ex))
		ex.r = r

		next.ServeHTTP(sw, r)

		h.logger.InfoContext(r.Context(), "http.request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// protectedHandler renders content for an authenticated session.
type protectedHandler func(w http.ResponseWriter, r *http.Request, res session.Result)

// protect runs the Guard before next. Every request is a fresh mount: a
// stale access credential is refreshed here and a dead session is sent to
// the sign-in page.
func (h *Handler) protect(next protectedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.guard.Protect(r.Context(), func(ctx context.Context, res session.Result) error {
			next(w, r.WithContext(ctx), res)
			return nil
		})
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSessionExpired):
			// A no-op when the Guard has already redirected.
			h.router.Redirect(r.Context(), domain.SignInPath, session.RedirectOptions{Replace: true})
		case errors.Is(err, context.Canceled):
			// Client went away; any refresh it started still completes.
			h.logger.DebugContext(r.Context(), "session check abandoned")
		default:
			h.logger.ErrorContext(r.Context(), "session check failed", slog.String("error", err.Error()))
			h.fail(w, r, err)
		}
	}
}

// fail answers with an error status unless a redirect was already written.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if redirected(r.Context()) {
		return
	}
	herr := errmap.ToHTTPError(err)
	http.Error(w, herr.Message, herr.StatusCode)
}

func redirected(ctx context.Context) bool {
	ex := exchangeFrom(ctx)
	return ex != nil && ex.redirected
}
