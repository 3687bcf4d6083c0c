// Package todo is the client for the remote todo resource service. Requests
// go through the session Authenticator, so a 401 has already been recovered
// from (or the session ended) by the time an error reaches the caller.
package todo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aelexs/todo-session-client/internal/apiclient"
	"github.com/aelexs/todo-session-client/internal/domain"
)

var tracer = otel.Tracer("todo")

// Config holds dependencies for a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client // Normally session.Authenticator.Client
	Logger     *slog.Logger
}

// Client performs CRUD on the signed-in user's todos.
type Client struct {
	api    apiclient.Endpoint
	logger *slog.Logger
}

// NewClient creates a Client. HTTPClient is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.HTTPClient == nil {
		return nil, fmt.Errorf("todo http client: %w", domain.ErrConfigRequired)
	}
	api, err := apiclient.New(cfg.BaseURL, cfg.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("todo: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, logger: logger}, nil
}

// List returns the todos owned by userID.
func (c *Client) List(ctx context.Context, userID string) ([]domain.Todo, error) {
	ctx, span := tracer.Start(ctx, "todo.list", trace.WithAttributes(attribute.String("todo.user_id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("list todos: user id is required: %w", domain.ErrInvalidInput)
	}

	var todos []domain.Todo
	if err := c.api.Do(ctx, http.MethodGet, c.api.URL("todos", "from", url.PathEscape(userID)), nil, &todos); err != nil {
		return nil, c.fail(ctx, span, "list todos", err)
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	span.SetAttributes(attribute.Int("todo.count", len(todos)))
	return todos, nil
}

// Get returns one todo.
func (c *Client) Get(ctx context.Context, id string) (domain.Todo, error) {
	ctx, span := tracer.Start(ctx, "todo.get", trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	target, err := c.item(id)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("get todo: %w", err)
	}

	var t domain.Todo
	if err := c.api.Do(ctx, http.MethodGet, target, nil, &t); err != nil {
		return domain.Todo{}, c.fail(ctx, span, "get todo", err)
	}
	return t, nil
}

// Create adds a todo. The service answers 200, 201 or 204 depending on
// version; the body, if any, is ignored.
func (c *Client) Create(ctx context.Context, draft domain.TodoDraft) error {
	ctx, span := tracer.Start(ctx, "todo.create")
	defer span.End()

	if err := draft.Validate(); err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	err := c.api.Do(ctx, http.MethodPost, c.api.URL("todos"), draft, nil,
		http.StatusOK, http.StatusCreated, http.StatusNoContent)
	if err != nil {
		return c.fail(ctx, span, "create todo", err)
	}
	c.logger.DebugContext(ctx, "todo created")
	return nil
}

// Update replaces the editable fields of a todo.
func (c *Client) Update(ctx context.Context, id string, draft domain.TodoDraft) error {
	ctx, span := tracer.Start(ctx, "todo.update", trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	target, err := c.item(id)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if err := c.api.Do(ctx, http.MethodPut, target, draft, nil); err != nil {
		return c.fail(ctx, span, "update todo", err)
	}
	return nil
}

// SetCompleted writes t back with its completion flag set to completed.
func (c *Client) SetCompleted(ctx context.Context, t domain.Todo, completed bool) error {
	draft := t.Toggled()
	draft.IsCompleted = &completed
	return c.Update(ctx, t.ID, draft)
}

// Delete removes a todo.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "todo.delete", trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	target, err := c.item(id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if err := c.api.Do(ctx, http.MethodDelete, target, nil, nil); err != nil {
		return c.fail(ctx, span, "delete todo", err)
	}
	return nil
}

func (c *Client) item(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("todo id is required: %w", domain.ErrInvalidInput)
	}
	return c.api.URL("todos", url.PathEscape(id)), nil
}

func (c *Client) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	c.logger.WarnContext(ctx, op+" failed", slog.String("error", err.Error()))
	return fmt.Errorf("%s: %w", op, err)
}
