package auth

// Package auth contains domain-level types for the storefront session.
// It is pure and free of transport and storage concerns.

// Role represents a storefront authorization role as reported by the backend.
// Keep string form so it round-trips through JSON unchanged.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

// IsAdmin reports whether the role grants back-office access.
func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleSuperAdmin }

// User is the authenticated identity returned by the backend's identity check,
// login and verification endpoints.
type User struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

// IsAdmin returns true if the user holds an admin or super-admin role.
// A nil user is never an admin.
func (u *User) IsAdmin() bool { return u != nil && u.Role.IsAdmin() }

// State is the session lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateChecking      State = "checking"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Settled reports whether the state is a terminal outcome of an identity check.
func (s State) Settled() bool { return s == StateAuthenticated || s == StateAnonymous }
