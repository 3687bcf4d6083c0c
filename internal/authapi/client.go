// Package authapi talks to the remote authentication service.
package authapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/todo-session-client/internal/apiclient"
	"github.com/aelexs/todo-session-client/internal/credstore"
	"github.com/aelexs/todo-session-client/internal/domain"
)

var tracer = otel.Tracer("authapi")

// Config holds dependencies for a Client.
type Config struct {
	BaseURL string

	// HTTPClient sends sign-in and sign-up requests. It should not carry an
	// Authenticator; these calls are made without a session. Nil uses a
	// plain client with domain.DefaultAPITimeout.
	HTTPClient *http.Client

	Store  credstore.Store
	Logger *slog.Logger
}

// Client signs users in and out.
type Client struct {
	api    apiclient.Endpoint
	store  credstore.Store
	logger *slog.Logger
}

// SignUpRequest is the account registration form.
type SignUpRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  domain.SecretString
}

// Validate checks that every field is present and the email is well formed.
func (r SignUpRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.FirstName) == "":
		return fmt.Errorf("first name is required: %w", domain.ErrInvalidInput)
	case strings.TrimSpace(r.LastName) == "":
		return fmt.Errorf("last name is required: %w", domain.ErrInvalidInput)
	case r.Password.IsEmpty():
		return fmt.Errorf("password is required: %w", domain.ErrInvalidInput)
	}
	return validateEmail(r.Email)
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("email is required: %w", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("email %q: %w", email, domain.ErrInvalidInput)
	}
	return nil
}

type signInBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpBody struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// NewClient creates a Client. Store is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("authapi store: %w", domain.ErrConfigRequired)
	}
	api, err := apiclient.New(cfg.BaseURL, cfg.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("authapi: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, store: cfg.Store, logger: logger}, nil
}

// SignIn exchanges email and password for a credential pair and stores both
// halves. A previous session is replaced.
func (c *Client) SignIn(ctx context.Context, email string, password domain.SecretString) error {
	ctx, span := tracer.Start(ctx, "authapi.signin")
	defer span.End()

	if err := validateEmail(email); err != nil {
		return err
	}
	if password.IsEmpty() {
		return fmt.Errorf("password is required: %w", domain.ErrInvalidInput)
	}

	var pair tokenPair
	body := signInBody{Email: strings.TrimSpace(email), Password: password.Expose()}
	if err := c.api.Do(ctx, http.MethodPost, c.api.URL("auth", "signin"), body, &pair); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign in failed")
		c.logger.InfoContext(ctx, "sign in rejected", slog.String("error", err.Error()))
		return fmt.Errorf("sign in: %w", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		err := fmt.Errorf("sign in response missing credentials: %w", domain.ErrUnexpectedResponse)
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign in failed")
		return err
	}

	if err := credstore.Save(ctx, c.store, credstore.Pair{Access: pair.AccessToken, Refresh: pair.RefreshToken}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store credentials")
		return fmt.Errorf("sign in: %w", err)
	}

	c.logger.InfoContext(ctx, "signed in")
	return nil
}

// SignUp registers an account. It does not sign the user in; the service
// answers 201 and the user signs in afterwards.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) error {
	ctx, span := tracer.Start(ctx, "authapi.signup")
	defer span.End()

	if err := req.Validate(); err != nil {
		return err
	}

	body := signUpBody{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password.Expose(),
	}
	if err := c.api.Do(ctx, http.MethodPost, c.api.URL("auth", "signup"), body, nil, http.StatusCreated); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign up failed")
		return fmt.Errorf("sign up: %w", err)
	}

	c.logger.InfoContext(ctx, "account registered")
	return nil
}

// Logout removes both credentials. It makes no network call.
func (c *Client) Logout(ctx context.Context) error {
	if err := credstore.Clear(ctx, c.store); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.logger.InfoContext(ctx, "signed out")
	return nil
}
