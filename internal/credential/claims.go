package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a credential. DisplayName and Email are
// only carried by access credentials.
type Claims struct {
	Subject     string
	DisplayName string
	Email       string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// tokenClaims mirrors the JSON payload written by the authentication service.
type tokenClaims struct {
	jwt.RegisteredClaims
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (c *tokenClaims) toClaims() Claims {
	out := Claims{
		Subject:     c.Subject,
		DisplayName: c.FullName,
		Email:       c.Email,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.UTC()
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.UTC()
	}
	return out
}
