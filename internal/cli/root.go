// Package cli implements the todoctl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aelexs/todo-session-client/internal/app"
	"github.com/aelexs/todo-session-client/internal/config"
	"github.com/aelexs/todo-session-client/internal/credstore"
	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/observability"
)

// Options configures the command tree. Zero values read the environment
// and use the process streams.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer

	Config *config.Config  // Nil loads TODO_* variables
	Logger *slog.Logger    // Nil logs to Stderr at the configured level
	Store  credstore.Store // Nil opens the configured backend
	Clock  domain.Clock
}

// env is shared by every command of one invocation.
type env struct {
	opts     Options
	out      io.Writer
	notifier Notifier
	router   Router
	app      *app.App
}

// Run executes todoctl with args and releases the session store when the
// command returns. Errors already shown to the user satisfy Reported.
func Run(ctx context.Context, opts Options, args []string) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	e := &env{
		opts:     opts,
		out:      opts.Stdout,
		notifier: NewNotifier(opts.Stderr),
		router:   Router{W: opts.Stderr},
	}

	root := newRootCmd(e)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, e.close())
}

// Execute runs todoctl with the process arguments.
func Execute(ctx context.Context) error {
	return Run(ctx, Options{}, os.Args[1:])
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "todoctl",
		Short: "Manage your todos from the terminal",
		Long: `todoctl signs you in to the todo service and manages your todos.

The session is kept in the configured credential store (a file under the
user config directory by default). An expired access credential is refreshed
automatically; when the session cannot be renewed you are asked to sign in
again.

Configuration is read from TODO_* environment variables, for example:
  TODO_API__BASE_URL=https://todo.example.com todoctl todo list`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.open(cmd.Context())
		},
	}
	root.SetOut(e.opts.Stdout)
	root.SetErr(e.opts.Stderr)

	root.AddCommand(newAuthCmd(e), newTodoCmd(e))
	return root
}

func (e *env) open(ctx context.Context) error {
	if e.app != nil {
		return nil
	}

	cfg := e.opts.Config
	if cfg == nil {
		loaded, err := config.Load(ctx)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	logger := e.opts.Logger
	if logger == nil {
		logger = observability.InitLogger(observability.LogConfig{
			Level:       cfg.LogLevel,
			Format:      cfg.LogFormat,
			ServiceName: "todoctl",
			Environment: cfg.Environment,
			Output:      e.opts.Stderr,
		})
	}

	a, err := app.New(ctx, app.Deps{
		Config:   cfg,
		Logger:   logger,
		Notifier: e.notifier,
		Router:   e.router,
		Clock:    e.opts.Clock,
		Store:    e.opts.Store,
	})
	if err != nil {
		return err
	}
	e.app = a
	return nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

// reportedError marks an error the user has already been told about.
type reportedError struct {
	err error
}

func (r reportedError) Error() string { return r.err.Error() }
func (r reportedError) Unwrap() error { return r.err }

// Reported reports whether err was already printed as a notice.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
