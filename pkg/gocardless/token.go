package gocardless

import (
	"time"

	"github.com/darcoto/mymoney2/pkg/model"
)

// tokenExpiryBuffer: a token expiring within this window is treated as
// expired so a request in flight never crosses the boundary.
const tokenExpiryBuffer = 5 * time.Minute

// Action is the token lifecycle decision for a remote call.
type Action int

const (
	// ActionReuse means the stored access token is still valid.
	ActionReuse Action = iota
	// ActionRefresh means the access token is stale but the refresh token
	// can mint a new one.
	ActionRefresh
	// ActionCreate means a full credential exchange is needed.
	ActionCreate
)

// String returns the action name for logging.
func (a Action) String() string {
	switch a {
	case ActionReuse:
		return "reuse"
	case ActionRefresh:
		return "refresh"
	case ActionCreate:
		return "create"
	default:
		return "unknown"
	}
}

// Decide evaluates the token state machine as a pure function of the stored
// token and the current time:
//
//	no token                          -> Create
//	expiry more than 5 min away       -> Reuse
//	expiry within 5 min, has refresh  -> Refresh
//	expiry within 5 min, no refresh   -> Create
//
// A refresh that subsequently fails falls through to Create at the caller.
func Decide(token *model.SyncToken, now time.Time) Action {
	if token == nil || token.AccessToken == "" {
		return ActionCreate
	}
	if token.ExpiresAt.After(now.Add(tokenExpiryBuffer)) {
		return ActionReuse
	}
	if token.RefreshToken != "" {
		return ActionRefresh
	}
	return ActionCreate
}
