package access_test

import (
	"testing"

	"github.com/hostelhq/hostelhq-backend/pkg/access"
	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/stretchr/testify/assert"
)

func TestHas_WildcardMatching(t *testing.T) {
	assert.True(t, access.Has([]string{"*"}, "anything.at.all"))
	assert.True(t, access.Has([]string{"rooms.*"}, "rooms.read"))
	assert.True(t, access.Has([]string{"rooms.*"}, "rooms.delete"))
	assert.False(t, access.Has([]string{"rooms.*"}, "fees.read"))
	assert.False(t, access.Has([]string{"rooms.read"}, "rooms.update"))
	assert.True(t, access.Has([]string{"rooms.read"}, ""))
}

func TestAllowed_RoleMatrix(t *testing.T) {
	admin := &actor.Actor{ID: "a", Role: actor.RoleAdmin}
	staff := &actor.Actor{ID: "s", Role: actor.RoleStaff}
	student := &actor.Actor{ID: "st", Role: actor.RoleStudent}

	tests := []struct {
		name       string
		a          *actor.Actor
		capability string
		want       bool
	}{
		{"admin creates rooms", admin, "rooms.create", true},
		{"admin pays fees", admin, "fees.pay", true},
		{"admin deletes students", admin, "students.delete", true},

		{"staff reads students", staff, "students.read", true},
		{"staff manages attendance", staff, "attendance.manage", true},
		{"staff manages visitors", staff, "visitors.create", true},
		{"staff approves leaves", staff, "leaves.approve", true},
		{"staff cannot create rooms", staff, "rooms.create", false},
		{"staff cannot pay fees", staff, "fees.pay", false},
		{"staff cannot allocate rooms", staff, "allocations.create", false},
		{"staff cannot delete students", staff, "students.delete", false},

		{"student reads rooms", student, "rooms.read", true},
		{"student reads own fees", student, "fees.read.own", true},
		{"student files maintenance", student, "maintenance.create", true},
		{"student requests leave", student, "leaves.create.own", true},
		{"student searches", student, "search.query", true},
		{"student cannot read all fees", student, "fees.read", false},
		{"student cannot manage attendance", student, "attendance.manage", false},
		{"student cannot approve leaves", student, "leaves.approve", false},
		{"student cannot check in visitors", student, "visitors.create", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.Allowed(tt.a, tt.capability))
		})
	}
}

func TestAllowed_SystemAndNilActors(t *testing.T) {
	assert.True(t, access.Allowed(nil, "rooms.delete"))
	assert.True(t, access.Allowed(actor.SystemActor(), "fees.pay"))
}

func TestAllowedAny(t *testing.T) {
	student := &actor.Actor{ID: "st", Role: actor.RoleStudent}

	assert.True(t, access.AllowedAny(student, "fees.read", "fees.read.own"))
	assert.False(t, access.AllowedAny(student, "fees.read", "fees.pay"))
	assert.False(t, access.AllowedAny(student))
}

func TestCapabilitiesFor_UnknownRole(t *testing.T) {
	assert.Empty(t, access.CapabilitiesFor("Janitor"))

	unknown := &actor.Actor{ID: "u", Role: "Janitor"}
	assert.False(t, access.Allowed(unknown, "rooms.read"))
}
