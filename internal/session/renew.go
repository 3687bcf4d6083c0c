package session

import (
	"context"

	"github.com/aelexs/todo-session-client/internal/credstore"
)

// renewal is the outcome of a completed refresh.
type renewal struct {
	access   string
	storeErr error // set when the new access credential could not be stored
}

// renew exchanges refreshToken and stores the new access credential.
//
// The exchange and the store write run detached from ctx. A caller whose ctx
// ends stops waiting and gets ctx.Err(), but the refresh still completes and
// its result still lands in the store, so leaving a view mid-refresh never
// costs the session.
func renew(ctx context.Context, r CredentialRefresher, store credstore.Store, refreshToken string) (renewal, error) {
	detached := context.WithoutCancel(ctx)

	type outcome struct {
		renewal
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		access, err := r.Refresh(detached, refreshToken)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		done <- outcome{renewal: renewal{
			access:   access,
			storeErr: credstore.ReplaceAccess(detached, store, access),
		}}
	}()

	select {
	case out := <-done:
		return out.renewal, out.err
	case <-ctx.Done():
		return renewal{}, ctx.Err()
	}
}
