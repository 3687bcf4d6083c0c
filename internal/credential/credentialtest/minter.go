// Package credentialtest mints signed credentials for tests.
package credentialtest

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aelexs/todo-session-client/internal/domain"
)

// Malformed is a credential string that no JWT parser accepts.
const Malformed = "not-a-jwt"

// Key generation dominates test time; every Minter shares one key.
var (
	keyOnce   sync.Once
	signKey   *rsa.PrivateKey
	signKeyID = "test-key-001"
	keyErr    error
)

func signingKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		signKey, keyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if keyErr != nil {
		t.Fatalf("generate signing key: %v", keyErr)
	}
	return signKey
}

// Identity is the user a credential is minted for.
type Identity struct {
	Subject     string
	DisplayName string
	Email       string
}

// DefaultIdentity is used when a test does not care who is signed in.
var DefaultIdentity = Identity{
	Subject:     "4f0c2b7e-0d7b-4c55-9d1a-4a1f6e0b9e11",
	DisplayName: "Ada Lovelace",
	Email:       "ada@example.com",
}

// Minter issues RS256 credentials whose issued-at comes from a clock.
type Minter struct {
	clock    domain.Clock
	identity Identity
}

// NewMinter creates a Minter for DefaultIdentity.
func NewMinter(clock domain.Clock) *Minter {
	return &Minter{clock: clock, identity: DefaultIdentity}
}

// WithIdentity returns a Minter that issues credentials for id.
func (m *Minter) WithIdentity(id Identity) *Minter {
	return &Minter{clock: m.clock, identity: id}
}

// Access mints an access credential that expires ttl from now. A negative
// ttl yields an already expired credential.
func (m *Minter) Access(t testing.TB, ttl time.Duration) string {
	t.Helper()
	return m.mint(t, ttl, true)
}

// Refresh mints a refresh credential that expires ttl from now.
func (m *Minter) Refresh(t testing.TB, ttl time.Duration) string {
	t.Helper()
	return m.mint(t, ttl, false)
}

// NoExpiry mints a well-formed credential without an exp claim.
func (m *Minter) NoExpiry(t testing.TB) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": m.identity.Subject,
		"iat": m.clock.Now().Unix(),
	}
	return sign(t, jwt.NewWithClaims(jwt.SigningMethodRS256, claims))
}

func (m *Minter) mint(t testing.TB, ttl time.Duration, access bool) string {
	t.Helper()
	now := m.clock.Now().UTC()
	claims := jwt.MapClaims{
		"sub": m.identity.Subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"jti": uuid.NewString(),
	}
	if access {
		claims["fullName"] = m.identity.DisplayName
		claims["email"] = m.identity.Email
	}
	return sign(t, jwt.NewWithClaims(jwt.SigningMethodRS256, claims))
}

func sign(t testing.TB, token *jwt.Token) string {
	t.Helper()
	token.Header["kid"] = signKeyID
	signed, err := token.SignedString(signingKey(t))
	if err != nil {
		t.Fatalf("sign credential: %v", err)
	}
	return signed
}
