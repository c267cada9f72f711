// Package access maps the three hostel roles to capability sets and checks
// required capabilities against them, with support for wildcards.
//
// Capability format:
//   - "*" - full access (all capabilities)
//   - "resource.*" - all actions on a resource (e.g., "rooms.*")
//   - "resource.action" - specific action (e.g., "rooms.read")
//   - "resource.action.own" - action restricted to the caller's own rows
//     (e.g., "fees.read.own"); ownership itself is verified by the service.
package access

import (
	"strings"

	"github.com/hostelhq/hostelhq-backend/pkg/actor"
)

// Capability sets per role. Admin holds everything; Staff is read-mostly with
// full visitor/maintenance/attendance management; Students act only on rows
// that trace back to their own identity.
var roleCapabilities = map[string][]string{
	actor.RoleAdmin: {"*"},

	actor.RoleStaff: {
		"profiles.read",
		"students.read",
		"rooms.read",
		"allocations.read",
		"fees.read",
		"visitors.*",
		"maintenance.*",
		"attendance.*",
		"leaves.read",
		"leaves.approve",
		"search.query",
	},

	actor.RoleStudent: {
		"profiles.read.own",
		"profiles.update.own",
		"students.read.own",
		"rooms.read",
		"allocations.read.own",
		"fees.read.own",
		"visitors.read.own",
		"maintenance.create",
		"maintenance.read.own",
		"attendance.read.own",
		"leaves.create.own",
		"leaves.read.own",
		"search.query",
	},
}

// CapabilitiesFor returns the capability set for a role.
// Unknown roles get no capabilities.
func CapabilitiesFor(role string) []string {
	return roleCapabilities[role]
}

// Has checks if the capability set includes the required capability.
// Supports wildcard matching:
//   - "*" matches everything
//   - "rooms.*" matches "rooms.read", "rooms.write", etc.
//   - Exact match for specific capabilities
func Has(caps []string, required string) bool {
	if required == "" {
		return true // No capability required
	}

	for _, c := range caps {
		if c == "*" {
			return true
		}
		if c == required {
			return true
		}
		if strings.HasSuffix(c, ".*") {
			prefix := strings.TrimSuffix(c, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}

// HasAny checks if the capability set covers any of the required capabilities.
func HasAny(caps []string, required []string) bool {
	for _, req := range required {
		if Has(caps, req) {
			return true
		}
	}
	return false
}

// Allowed reports whether the actor's role grants the required capability.
// A nil actor (system context) is always allowed.
func Allowed(a *actor.Actor, required string) bool {
	if a == nil || a.IsSystem() {
		return true
	}
	return Has(CapabilitiesFor(a.Role), required)
}

// AllowedAny reports whether the actor's role grants any of the required
// capabilities. Handlers use this for endpoints where a role-wide capability
// or a self-scoped one suffices (ownership is then checked by the service).
func AllowedAny(a *actor.Actor, required ...string) bool {
	if a == nil || a.IsSystem() {
		return true
	}
	return HasAny(CapabilitiesFor(a.Role), required)
}
