// Package web serves the todo views on the local view host. Protected pages
// mount the session Guard on every request; the session package reaches the
// browser through Notifier (flash messages) and Router (HTTP redirects).
package web

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/aelexs/todo-session-client/internal/authapi"
	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/session"
)

// Guard decides whether a protected page may render.
type Guard interface {
	Protect(ctx context.Context, render func(ctx context.Context, res session.Result) error) error
}

// Accounts signs users up, in and out.
type Accounts interface {
	SignIn(ctx context.Context, email string, password domain.SecretString) error
	SignUp(ctx context.Context, req authapi.SignUpRequest) error
	Logout(ctx context.Context) error
}

// Todos is the todo API as seen by the views.
type Todos interface {
	List(ctx context.Context, userID string) ([]domain.Todo, error)
	Get(ctx context.Context, id string) (domain.Todo, error)
	Create(ctx context.Context, draft domain.TodoDraft) error
	Update(ctx context.Context, id string, draft domain.TodoDraft) error
	SetCompleted(ctx context.Context, t domain.Todo, completed bool) error
	Delete(ctx context.Context, id string) error
}

// Config holds dependencies for a Handler. Notifier and Router must be the
// same values the session components were built with.
type Config struct {
	Guard    Guard
	Accounts Accounts
	Todos    Todos
	Notifier Notifier
	Router   Router
	Logger   *slog.Logger
}

// Handler serves the views.
type Handler struct {
	guard     Guard
	accounts  Accounts
	todos     Todos
	notifier  Notifier
	router    Router
	logger    *slog.Logger
	templates map[string]*template.Template
}

// NewHandler creates a Handler. Guard, Accounts and Todos are required.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Guard == nil {
		return nil, fmt.Errorf("web guard: %w", domain.ErrConfigRequired)
	}
	if cfg.Accounts == nil {
		return nil, fmt.Errorf("web accounts: %w", domain.ErrConfigRequired)
	}
	if cfg.Todos == nil {
		return nil, fmt.Errorf("web todos: %w", domain.ErrConfigRequired)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Handler{
		guard:     cfg.Guard,
		accounts:  cfg.Accounts,
		todos:     cfg.Todos,
		notifier:  cfg.Notifier,
		router:    cfg.Router,
		logger:    logger,
		templates: tmpl,
	}, nil
}

// Register adds the view routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, h.withExchangeAndLogging(fn))
	}

	handle("GET /{$}", h.signInForm)
	handle("POST /signin", h.signIn)
	handle("GET /signup", h.signUpForm)
	handle("POST /signup", h.signUp)
	handle("POST /logout", h.logout)

	handle("GET /list", h.protect(h.list))
	handle("GET /todo/{$}", h.protect(h.newForm))
	handle("GET /todo/{id}", h.protect(h.editForm))
	handle("POST /todo/{$}", h.protect(h.create))
	handle("POST /todo/{id}", h.protect(h.update))
	handle("POST /todo/{id}/toggle", h.protect(h.toggle))
	handle("POST /todo/{id}/delete", h.protect(h.remove))
}
