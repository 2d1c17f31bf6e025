// Package guard is the access-control decision point gating protected views
// on session state.
package guard

import (
	"github.com/kindify/kindify-gateway/internal/domain"
	"github.com/kindify/kindify-gateway/internal/session"
)

// AuthState is the guard's view of a session.
type AuthState int

const (
	// StateUnknown means the session is not resolved yet (profile hydration
	// in flight). Protected content must never render in this state.
	StateUnknown AuthState = iota
	StateUnauthenticated
	StateAuthenticated
)

// Resolve maps a store snapshot to the guard state machine. A loading
// session is Unknown regardless of whether a user is present.
func Resolve(st session.State) AuthState {
	switch {
	case st.Loading:
		return StateUnknown
	case st.User != nil:
		return StateAuthenticated
	default:
		return StateUnauthenticated
	}
}

type Action int

const (
	ActionAllow Action = iota
	ActionPlaceholder
	ActionRedirect
)

type Decision struct {
	Action Action
	Target string // redirect target, set for ActionRedirect only
}

// LoginPath returns the role-appropriate login entry point, falling back to
// the generic login when the area has no role.
func LoginPath(role string) string {
	if domain.IsValidRole(role) {
		return "/login/" + role
	}
	return "/login"
}

// Evaluate decides what a protected route in areaRole's area may do for a
// session in state st whose user holds userRole. Unknown always yields the
// placeholder; unauthenticated sessions are redirected to the area's login.
// Admins may enter any area.
func Evaluate(st AuthState, userRole, areaRole string) Decision {
	switch st {
	case StateUnknown:
		return Decision{Action: ActionPlaceholder}
	case StateAuthenticated:
		if areaRole == "" || userRole == areaRole || userRole == domain.RoleAdmin {
			return Decision{Action: ActionAllow}
		}
		return Decision{Action: ActionRedirect, Target: LoginPath(areaRole)}
	default:
		return Decision{Action: ActionRedirect, Target: LoginPath(areaRole)}
	}
}
