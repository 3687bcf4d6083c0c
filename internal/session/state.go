package session

import (
	"github.com/aelexs/todo-session-client/internal/credential"
	"github.com/aelexs/todo-session-client/internal/credstore"
)

// State is where a Guard check stands.
type State int

const (
	// Unauthenticated is the state before a check has classified the store.
	Unauthenticated State = iota
	// Refreshing means a refresh exchange is in flight.
	Refreshing
	// Authenticated means the stored access credential is live.
	Authenticated
	// Dead means the session has been torn down and the user redirected.
	Dead
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Refreshing:
		return "refreshing"
	case Authenticated:
		return "authenticated"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Condition classifies a stored credential pair.
type Condition int

const (
	// ConditionDead: the access credential is unusable and so is the
	// refresh credential, or both are absent.
	ConditionDead Condition = iota
	// ConditionRefreshable: the access credential is absent or expired but
	// the refresh credential is live.
	ConditionRefreshable
	// ConditionValid: the access credential is present and unexpired.
	ConditionValid
)

func (c Condition) String() string {
	switch c {
	case ConditionValid:
		return "valid"
	case ConditionRefreshable:
		return "refreshable"
	default:
		return "dead"
	}
}

// Classify evaluates p against the inspector's clock. A live access
// credential wins regardless of the refresh credential.
func Classify(p credstore.Pair, in *credential.Inspector) Condition {
	if !in.Expired(p.Access) {
		return ConditionValid
	}
	if !in.Expired(p.Refresh) {
		return ConditionRefreshable
	}
	return ConditionDead
}
