package domain

import "time"

// Credential store keys. Both halves of the session live under these keys
// and are always removed together.
const (
	AccessCredentialKey  = "access_token"
	RefreshCredentialKey = "refresh_token"
)

// Routes the session layer redirects to.
const (
	SignInPath = "/"
	HomePath   = "/list"
)

// User-visible notices.
const (
	SessionExpiredMessage = "Session expired. Please log in again."
	SignUpSuccessMessage  = "Account has been registered successfully."
	SignInFailedMessage   = "Invalid email or password."
	SignUpFailedMessage   = "Could not create the account."
	LoggedOutMessage      = "Signed out."

	TodoCreatedMessage = "Task created successfully."
	TodoUpdatedMessage = "Task updated successfully."
	TodoDeletedMessage = "Task deleted successfully."
	TodoCreateFailed   = "Failed to create todo."
	TodoEditFailed     = "Failed to edit todo."
	TodoDeleteFailed   = "Failed to delete todo."
	TodoLoadFailed     = "Failed to load todos."
)

// Timeouts and lifecycle limits.
const (
	DefaultAPITimeout = 10 * time.Second // Per-request timeout for the remote API
	RedisTimeout      = 2 * time.Second  // Max time for Redis store operations

	// Graceful shutdown of the local view host
	GracefulShutdownTimeout = 30 * time.Second
	ShutdownHTTPTimeout     = 10 * time.Second
	ShutdownOTELTimeout     = 5 * time.Second

	// MaxErrorBodyBytes bounds how much of a failed response is read to find
	// the server's message field.
	MaxErrorBodyBytes = 64 * 1024
)
