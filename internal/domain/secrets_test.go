package domain_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSecretString(t *testing.T) {
	secret := domain.SecretString("hunter2-password")

	t.Run("String returns REDACTED", func(t *testing.T) {
		assert.Equal(t, "[REDACTED]", secret.String())
		assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", secret))
		assert.NotContains(t, fmt.Sprintf("%#v", secret), "hunter2")
	})

	t.Run("Expose returns actual value", func(t *testing.T) {
		assert.Equal(t, "hunter2-password", secret.Expose())
	})

	t.Run("IsEmpty", func(t *testing.T) {
		assert.False(t, secret.IsEmpty())
		assert.True(t, domain.SecretString("").IsEmpty())
	})

	t.Run("slog output is redacted under any key", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		logger.Info("sign in", "value", secret)

		assert.NotContains(t, buf.String(), "hunter2")
		assert.Contains(t, buf.String(), "[REDACTED]")
	})
}
