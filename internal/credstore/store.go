// Package credstore persists the access/refresh credential pair.
//
// The store is the single owner of session state: the session package reads
// and writes through it and never holds a credential longer than one
// operation. Store implementations are plain key-value accessors; the pair
// helpers in this file enforce that the two halves are written together on
// sign-in and removed together on every teardown.
package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aelexs/todo-session-client/internal/domain"
)

// Store is a key-value accessor for credentials. Get reports ok=false for a
// missing key; err is reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// multiRemover is implemented by stores that can drop several keys in one
// atomic step.
type multiRemover interface {
	RemoveAll(ctx context.Context, keys ...string) error
}

// Pair is the session as stored. Empty strings mean absent.
type Pair struct {
	Access  string
	Refresh string
}

// Empty reports whether neither credential is present.
func (p Pair) Empty() bool {
	return p.Access == "" && p.Refresh == ""
}

// Load reads both credentials.
func Load(ctx context.Context, s Store) (Pair, error) {
	access, _, err := s.Get(ctx, domain.AccessCredentialKey)
	if err != nil {
		return Pair{}, fmt.Errorf("load access credential: %w", err)
	}
	refresh, _, err := s.Get(ctx, domain.RefreshCredentialKey)
	if err != nil {
		return Pair{}, fmt.Errorf("load refresh credential: %w", err)
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Access reads the access credential alone.
func Access(ctx context.Context, s Store) (string, error) {
	v, _, err := s.Get(ctx, domain.AccessCredentialKey)
	if err != nil {
		return "", fmt.Errorf("load access credential: %w", err)
	}
	return v, nil
}

// Refresh reads the refresh credential alone. A missing credential is
// reported as domain.ErrNoCredential.
func Refresh(ctx context.Context, s Store) (string, error) {
	v, ok, err := s.Get(ctx, domain.RefreshCredentialKey)
	if err != nil {
		return "", fmt.Errorf("load refresh credential: %w", err)
	}
	if !ok || v == "" {
		return "", fmt.Errorf("refresh credential: %w", domain.ErrNoCredential)
	}
	return v, nil
}

// Save writes a freshly issued pair. Both values are required; if the second
// write fails the first is rolled back so the store never holds half a
// session.
func Save(ctx context.Context, s Store, p Pair) error {
	if p.Access == "" || p.Refresh == "" {
		return fmt.Errorf("save credentials: both credentials required: %w", domain.ErrInvalidInput)
	}
	if err := s.Set(ctx, domain.AccessCredentialKey, p.Access); err != nil {
		return fmt.Errorf("save access credential: %w", err)
	}
	if err := s.Set(ctx, domain.RefreshCredentialKey, p.Refresh); err != nil {
		return errors.Join(
			fmt.Errorf("save refresh credential: %w", err),
			Clear(ctx, s),
		)
	}
	return nil
}

// ReplaceAccess writes a refreshed access credential. The refresh credential
// is left untouched.
func ReplaceAccess(ctx context.Context, s Store, access string) error {
	if access == "" {
		return fmt.Errorf("replace access credential: empty: %w", domain.ErrInvalidInput)
	}
	if err := s.Set(ctx, domain.AccessCredentialKey, access); err != nil {
		return fmt.Errorf("replace access credential: %w", err)
	}
	return nil
}

// Clear removes both credentials. It attempts both removals even when the
// first fails.
func Clear(ctx context.Context, s Store) error {
	if mr, ok := s.(multiRemover); ok {
		if err := mr.RemoveAll(ctx, domain.AccessCredentialKey, domain.RefreshCredentialKey); err != nil {
			return fmt.Errorf("clear credentials: %w", err)
		}
		return nil
	}

	var errs []error
	if err := s.Remove(ctx, domain.AccessCredentialKey); err != nil {
		errs = append(errs, fmt.Errorf("remove access credential: %w", err))
	}
	if err := s.Remove(ctx, domain.RefreshCredentialKey); err != nil {
		errs = append(errs, fmt.Errorf("remove refresh credential: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("clear credentials: %w", errors.Join(errs...))
	}
	return nil
}
