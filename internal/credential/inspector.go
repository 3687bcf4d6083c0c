package credential

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aelexs/todo-session-client/internal/domain"
)

var parser = jwt.NewParser()

// Decode parses the claims of a credential without verifying its signature.
// Errors wrap domain.ErrMalformedCredential.
func Decode(token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, fmt.Errorf("decode credential: empty: %w", domain.ErrMalformedCredential)
	}

	var tc tokenClaims
	if _, _, err := parser.ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("decode credential: %w: %w", domain.ErrMalformedCredential, err)
	}
	if tc.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("decode credential: missing exp claim: %w", domain.ErrMalformedCredential)
	}

	return tc.toClaims(), nil
}

// IsExpired reports whether token is unusable at now: it cannot be decoded,
// or now is at or past its expiry.
func IsExpired(token string, now time.Time) bool {
	claims, err := Decode(token)
	if err != nil {
		return true
	}
	return !now.Before(claims.ExpiresAt)
}

// Inspector binds Decode and IsExpired to a clock.
type Inspector struct {
	clock domain.Clock
}

// NewInspector creates an Inspector that evaluates expiry against clock.
// A nil clock uses the system clock.
func NewInspector(clock domain.Clock) *Inspector {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Inspector{clock: clock}
}

// Expired reports whether token is missing, malformed, or expired now.
func (i *Inspector) Expired(token string) bool {
	return IsExpired(token, i.clock.Now())
}

// Live returns the claims of token when it is decodable and unexpired.
func (i *Inspector) Live(token string) (Claims, bool) {
	claims, err := Decode(token)
	if err != nil {
		return Claims{}, false
	}
	if !i.clock.Now().Before(claims.ExpiresAt) {
		return Claims{}, false
	}
	return claims, true
}

// Now returns the inspector's current time.
func (i *Inspector) Now() time.Time {
	return i.clock.Now()
}
