package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aelexs/todo-session-client/internal/authapi"
	"github.com/aelexs/todo-session-client/internal/credstore"
	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/errmap"
	"github.com/aelexs/todo-session-client/internal/session"
)

func newAuthCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your session",
		Long: `Manage your session with the todo service.

Subcommands:
  signin   Sign in with email and password
  signup   Register a new account
  logout   Remove the stored credentials
  status   Show the current session without refreshing it

Examples:
  todoctl auth signup --first-name Ada --last-name Lovelace --email ada@example.com --password s3cret
  todoctl auth signin --email ada@example.com --password s3cret
  todoctl auth status
  todoctl auth logout`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSignInCmd(e), newSignUpCmd(e), newLogoutCmd(e), newStatusCmd(e))
	return cmd
}

func newSignInCmd(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := e.app.Auth.SignIn(ctx, email, domain.SecretString(password)); err != nil {
				e.notifier.Error(ctx, errmap.UserMessage(err, domain.SignInFailedMessage))
				return reportedError{err}
			}
			fmt.Fprintf(e.out, "Signed in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignUpCmd(e *env) *cobra.Command {
	var req authapi.SignUpRequest
	var password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		Long: `Register a new account. Registration does not sign you in; run
'todoctl auth signin' afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			req.Password = domain.SecretString(password)
			if err := e.app.Auth.SignUp(ctx, req); err != nil {
				e.notifier.Error(ctx, errmap.UserMessage(err, domain.SignUpFailedMessage))
				return reportedError{err}
			}
			e.notifier.Success(ctx, domain.SignUpSuccessMessage)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name (required)")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	for _, name := range []string{"first-name", "last-name", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := e.app.Auth.Logout(ctx); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			e.notifier.Success(ctx, domain.LoggedOutMessage)
			return nil
		},
	}
}

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session without refreshing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printStatus(cmd.Context(), e)
		},
	}
}

func printStatus(ctx context.Context, e *env) error {
	pair, err := credstore.Load(ctx, e.app.Store)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	switch session.Classify(pair, e.app.Inspector) {
	case session.ConditionValid:
		claims, _ := e.app.Inspector.Live(pair.Access)
		fmt.Fprintf(e.out, "Signed in as %s <%s>\n", claims.DisplayName, claims.Email)
		fmt.Fprintf(e.out, "Access expires %s (in %s)\n",
			claims.ExpiresAt.Format(time.RFC3339),
			claims.ExpiresAt.Sub(e.app.Inspector.Now()).Round(time.Second))
	case session.ConditionRefreshable:
		fmt.Fprintln(e.out, "Access expired; it will be renewed on the next command.")
	default:
		if pair.Empty() {
			fmt.Fprintln(e.out, "Not signed in.")
		} else {
			fmt.Fprintln(e.out, "Session expired. Sign in again.")
		}
	}
	return nil
}
