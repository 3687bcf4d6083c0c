package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/errmap"
	"github.com/aelexs/todo-session-client/internal/session"
)

func newTodoCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage your todos",
		Long: `Manage your todos. Every subcommand checks the session first and
renews an expired access credential when it can.

Examples:
  todoctl todo list
  todoctl todo create --title "Buy milk" --description "2 litres"
  todoctl todo toggle 6f1c...
  todoctl todo delete 6f1c...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newListCmd(e),
		newShowCmd(e),
		newCreateCmd(e),
		newEditCmd(e),
		newToggleCmd(e),
		newDeleteCmd(e),
	)
	return cmd
}

// protected runs fn behind the session guard.
func (e *env) protected(ctx context.Context, fn func(ctx context.Context, res session.Result) error) error {
	err := e.app.Guard.Protect(ctx, fn)
	if errors.Is(err, domain.ErrSessionExpired) {
		return reportedError{err}
	}
	return err
}

// failed reports a todo API failure. A failure that ended the session has
// already been shown.
func (e *env) failed(ctx context.Context, err error, fallback string) error {
	if !domain.IsSessionFatal(err) {
		e.notifier.Error(ctx, errmap.UserMessage(err, fallback))
	}
	return reportedError{err}
}

func newListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.protected(cmd.Context(), func(ctx context.Context, res session.Result) error {
				todos, err := e.app.Todos.List(ctx, res.Claims.Subject)
				if err != nil {
					return e.failed(ctx, err, domain.TodoLoadFailed)
				}
				renderTodos(e.out, todos)
				return nil
			})
		},
	}
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.protected(cmd.Context(), func(ctx context.Context, _ session.Result) error {
				t, err := e.app.Todos.Get(ctx, args[0])
				if err != nil {
					return e.failed(ctx, err, domain.TodoLoadFailed)
				}
				renderTodo(e.out, t)
				return nil
			})
		},
	}
}

func newCreateCmd(e *env) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a todo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.protected(cmd.Context(), func(ctx context.Context, res session.Result) error {
				draft := domain.TodoDraft{Title: title, Description: description, UserID: res.Claims.Subject}
				if err := e.app.Todos.Create(ctx, draft); err != nil {
					return e.failed(ctx, err, domain.TodoCreateFailed)
				}
				e.notifier.Success(ctx, domain.TodoCreatedMessage)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description (required)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newEditCmd(e *env) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or description of a todo",
		Long:  "Change the title or description of a todo. Fields not given keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.protected(cmd.Context(), func(ctx context.Context, _ session.Result) error {
				t, err := e.app.Todos.Get(ctx, args[0])
				if err != nil {
					return e.failed(ctx, err, domain.TodoEditFailed)
				}
				draft := domain.TodoDraft{Title: t.Title, Description: t.Description, UserID: t.UserID}
				if cmd.Flags().Changed("title") {
					draft.Title = title
				}
				if cmd.Flags().Changed("description") {
					draft.Description = description
				}
				if err := e.app.Todos.Update(ctx, t.ID, draft); err != nil {
					return e.failed(ctx, err, domain.TodoEditFailed)
				}
				e.notifier.Success(ctx, domain.TodoUpdatedMessage)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.MarkFlagsOneRequired("title", "description")
	return cmd
}

func newToggleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a todo between open and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.protected(cmd.Context(), func(ctx context.Context, _ session.Result) error {
				t, err := e.app.Todos.Get(ctx, args[0])
				if err == nil {
					err = e.app.Todos.SetCompleted(ctx, t, !t.IsCompleted)
				}
				if err != nil {
					return e.failed(ctx, err, domain.TodoEditFailed)
				}
				state := "completed"
				if t.IsCompleted {
					state = "reopened"
				}
				fmt.Fprintf(e.out, "%s %s\n", t.Title, state)
				return nil
			})
		},
	}
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.protected(cmd.Context(), func(ctx context.Context, _ session.Result) error {
				if err := e.app.Todos.Delete(ctx, args[0]); err != nil {
					return e.failed(ctx, err, domain.TodoDeleteFailed)
				}
				e.notifier.Success(ctx, domain.TodoDeletedMessage)
				return nil
			})
		},
	}
}
