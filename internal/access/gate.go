// Package access decides whether a caller may perform an operation.
//
// It holds no state: a Caller is resolved per request by the identity
// middleware and passed explicitly to every check.
package access

import "strings"

// Caller is the identity behind a request.
type Caller struct {
	UserID        int64
	Username      string
	IsAdmin       bool
	Authenticated bool
}

// Anonymous is the caller for requests without a valid session.
var Anonymous = Caller{}

// Denial classifies how a refused request must be answered.
type Denial int

const (
	DenyNone Denial = iota
	// DenyUnauthenticated means the caller has to log in first.
	DenyUnauthenticated
	// DenyRedirect is used for admin-only operations: the caller is sent to a
	// neutral page with a notice instead of a hard error.
	DenyRedirect
	// DenyForbidden is a hard failure, used for ownership checks.
	DenyForbidden
)

// Decision is the outcome of Check.
type Decision struct {
	Allowed bool
	Reason  string
	Denial  Denial
}

var allow = Decision{Allowed: true}

// Capability is a single requirement evaluated against a Caller.
type Capability struct {
	name  string
	check func(Caller) Decision
}

func (c Capability) String() string { return c.name }

// Authenticated requires a logged-in caller.
func Authenticated() Capability {
	return Capability{name: "authenticated", check: requireLogin}
}

// Admin requires a logged-in caller with the admin flag.
func Admin() Capability {
	return Capability{name: "admin", check: func(c Caller) Decision {
		if d := requireLogin(c); !d.Allowed {
			return d
		}
		if !c.IsAdmin {
			return Decision{Reason: "Admin access required", Denial: DenyRedirect}
		}
		return allow
	}}
}

// Owns requires the caller to be the owner of a resource.
func Owns(ownerID int64) Capability {
	return Capability{name: "owns", check: func(c Caller) Decision {
		if d := requireLogin(c); !d.Allowed {
			return d
		}
		if ownerID == 0 || c.UserID != ownerID {
			return Decision{Reason: "You do not own this resource", Denial: DenyForbidden}
		}
		return allow
	}}
}

// AnyOf passes when at least one capability passes. When all fail, the
// most severe denial wins so that ownership failures stay hard failures.
func AnyOf(caps ...Capability) Capability {
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, c.name)
	}
	return Capability{name: "any(" + strings.Join(names, ",") + ")", check: func(c Caller) Decision {
		var worst Decision
		for _, cp := range caps {
			d := cp.check(c)
			if d.Allowed {
				return d
			}
			if d.Denial > worst.Denial {
				worst = d
			}
		}
		if worst.Denial == DenyNone {
			return Decision{Reason: "Access denied", Denial: DenyForbidden}
		}
		return worst
	}}
}

// Check evaluates every capability in order and returns the first denial.
func Check(c Caller, caps ...Capability) Decision {
	for _, cp := range caps {
		if d := cp.check(c); !d.Allowed {
			return d
		}
	}
	return allow
}

func requireLogin(c Caller) Decision {
	if !c.Authenticated || c.UserID == 0 {
		return Decision{Reason: "Please log in to continue", Denial: DenyUnauthenticated}
	}
	return allow
}
