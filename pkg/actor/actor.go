// Package actor identifies the authenticated caller for the duration of a
// request. The actor is extracted from the identity provider's token by the
// auth middleware and consulted by services for ownership checks and audit
// fields (marked_by, approved_by, reported_by).
package actor

import (
	"context"
	"fmt"
)

// Roles recognized by the system. Unknown roles from the identity provider
// are normalized to RoleStudent at the identity bridge.
const (
	RoleAdmin   = "Admin"
	RoleStaff   = "Staff"
	RoleStudent = "Student"
)

// ValidRole reports whether role is one of the three recognized roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff || role == RoleStudent
}

// Actor represents the entity performing an action in the system.
type Actor struct {
	// ID is the identity provider's user ID; profiles share this ID.
	ID string `json:"id"`

	// FullName is the actor's display name
	FullName string `json:"full_name"`

	// Email is the actor's email address
	Email string `json:"email"`

	// Role is one of Admin, Staff, Student
	Role string `json:"role"`
}

// IsAdmin reports whether the actor holds the Admin role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// IsStaff reports whether the actor holds the Staff role.
func (a *Actor) IsStaff() bool {
	return a != nil && a.Role == RoleStaff
}

// IsStudent reports whether the actor holds the Student role.
func (a *Actor) IsStudent() bool {
	return a != nil && a.Role == RoleStudent
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a == nil {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.FullName, a.Email)
}

// contextKey is the type for context keys to avoid collisions
type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present (e.g., system operations).
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// SystemActor returns an Actor representing the system itself.
// Use this for background jobs (overdue scanning) and event consumers.
func SystemActor() *Actor {
	return &Actor{
		ID:       "00000000-0000-0000-0000-000000000000",
		FullName: "System",
		Email:    "system@hostelhq.local",
		Role:     RoleAdmin,
	}
}

// IsSystem returns true if the actor represents the system.
func (a *Actor) IsSystem() bool {
	if a == nil {
		return true
	}
	return a.ID == "00000000-0000-0000-0000-000000000000"
}
