package domain

import "log/slog"

// SecretString wraps a password or credential so it cannot leak through
// fmt, slog, or string concatenation. Only Expose returns the value.
type SecretString string

// String returns a redacted placeholder, never the actual value.
func (s SecretString) String() string {
	return "[REDACTED]"
}

// GoString keeps %#v from printing the value.
func (s SecretString) GoString() string {
	return `domain.SecretString("[REDACTED]")`
}

// LogValue implements slog.LogValuer so the value is redacted even when the
// handler's ReplaceAttr does not match the attribute key.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

// Expose returns the actual secret value. Call it only at the point the
// value goes on the wire.
func (s SecretString) Expose() string {
	return string(s)
}

// IsEmpty returns true if the secret is empty.
func (s SecretString) IsEmpty() bool {
	return len(s) == 0
}

var _ slog.LogValuer = SecretString("")
