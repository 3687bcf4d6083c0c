package session

import (
	"context"
	"log/slog"
)

// Notifier shows fire-and-forget messages to the user.
type Notifier interface {
	Error(ctx context.Context, message string)
	Success(ctx context.Context, message string)
}

// RedirectOptions controls how a navigation is recorded.
type RedirectOptions struct {
	// Replace drops the current location from history, so "back" does not
	// return to a page the user can no longer see.
	Replace bool
}

// Router navigates the user to another view.
type Router interface {
	Redirect(ctx context.Context, path string, opts RedirectOptions)
}

// CredentialRefresher is the part of Refresher the Guard and Authenticator
// depend on.
type CredentialRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// LogNotifier writes notices to a logger. It is the fallback when no
// user-facing notifier is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// Error logs message at warn level.
func (n LogNotifier) Error(ctx context.Context, message string) {
	n.logger().WarnContext(ctx, "notice", slog.String("level", "error"), slog.String("message", message))
}

// Success logs message at info level.
func (n LogNotifier) Success(ctx context.Context, message string) {
	n.logger().InfoContext(ctx, "notice", slog.String("level", "success"), slog.String("message", message))
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

// LogRouter records redirects in the log. It is the fallback when no router
// is configured.
type LogRouter struct {
	Logger *slog.Logger
}

// Redirect logs the navigation.
func (r LogRouter) Redirect(ctx context.Context, path string, opts RedirectOptions) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "redirect", slog.String("path", path), slog.Bool("replace", opts.Replace))
}

var (
	_ Notifier            = LogNotifier{}
	_ Router              = LogRouter{}
	_ CredentialRefresher = (*Refresher)(nil)
)
