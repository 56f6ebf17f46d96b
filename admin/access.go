package admin

import (
	"errors"
	"fmt"

	"github.com/sourcefinder/sourcefinder/client"
)

// ErrNotAdmin is returned by every admin-scoped operation when the session
// is not an admin session. It wraps the Access value that caused it.
var ErrNotAdmin = errors.New("admin access required")

// Session is the read side of the session store; *session.Store satisfies it.
type Session interface {
	Token() string
	Identity() (client.Identity, bool)
}

// Access is the outcome of the admin access gate.
type Access int

const (
	// AccessLogin means there is no token; the user must log in.
	AccessLogin Access = iota
	// AccessPending means a token exists but its identity is not resolved yet.
	AccessPending
	// AccessForbidden means the identity is not an admin.
	AccessForbidden
	// AccessGranted means admin operations may be issued.
	AccessGranted
)

func (a Access) String() string {
	switch a {
	case AccessLogin:
		return "login required"
	case AccessPending:
		return "identity pending"
	case AccessForbidden:
		return "forbidden"
	case AccessGranted:
		return "granted"
	default:
		return fmt.Sprintf("unknown(%d)", int(a))
	}
}

// Redirect returns where a front end should navigate for this access state,
// or "" to stay.
func (a Access) Redirect() string {
	switch a {
	case AccessLogin:
		return "/login"
	case AccessForbidden:
		return "/"
	default:
		return ""
	}
}

// AccessFor evaluates the gate against s.
func AccessFor(s Session) Access {
	if s.Token() == "" {
		return AccessLogin
	}
	id, ok := s.Identity()
	if !ok {
		return AccessPending
	}
	if !id.IsAdmin() {
		return AccessForbidden
	}
	return AccessGranted
}

type accessError struct{ access Access }

func (e *accessError) Error() string { return fmt.Sprintf("%s: %s", ErrNotAdmin, e.access) }
func (e *accessError) Unwrap() error { return ErrNotAdmin }

// AccessOf extracts the gate state from an ErrNotAdmin error.
func AccessOf(err error) (Access, bool) {
	var ae *accessError
	if errors.As(err, &ae) {
		return ae.access, true
	}
	return 0, false
}
