package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAccess(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name     string
		role     Role
		resource string
		action   Action
		want     bool
	}{
		{"admin reaches everything", RoleAdmin, ResourceUsers, ActionDelete, true},
		{"admin reaches unknown resources", RoleAdmin, "nonexistent", ActionCreate, true},
		{"manager reads users", RoleManager, ResourceUsers, ActionRead, true},
		{"manager cannot delete users", RoleManager, ResourceUsers, ActionDelete, false},
		{"manager wildcard on courses", RoleManager, ResourceCourses, ActionDelete, true},
		{"client reads courses", RoleClient, ResourceCourses, ActionRead, true},
		{"client cannot create courses", RoleClient, ResourceCourses, ActionCreate, false},
		{"client creates consent", RoleClient, ResourceConsent, ActionCreate, true},
		{"candidate reads own audit", RoleCandidate, ResourceAudit, ActionRead, true},
		{"candidate cannot touch users", RoleCandidate, ResourceUsers, ActionRead, false},
		{"unknown role denied", Role("ghost"), ResourceCourses, ActionRead, false},
		{"unknown resource denied", RoleClient, "nonexistent", ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.CanAccess(tt.role, tt.resource, tt.action))
		})
	}
}

func TestCanAccess_CustomTable(t *testing.T) {
	engine := NewEngine(Table{
		RoleClient: {{Resource: "widgets", Actions: []Action{ActionAny}}},
	})

	assert.True(t, engine.CanAccess(RoleClient, "widgets", ActionDelete))
	assert.False(t, engine.CanAccess(RoleClient, "gadgets", ActionRead))
	// Admin short-circuit holds even when the table has no admin row.
	assert.True(t, engine.CanAccess(RoleAdmin, "gadgets", ActionRead))
}

func TestCanAccessResource(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("elevated roles skip ownership", func(t *testing.T) {
		assert.True(t, engine.CanAccessResource(RoleAdmin, ResourceUsers, ActionRead, "owner-1", "caller-2"))
		assert.True(t, engine.CanAccessResource(RoleManager, ResourceUsers, ActionRead, "owner-1", "caller-2"))
	})

	t.Run("non-elevated caller owns the row", func(t *testing.T) {
		assert.True(t, engine.CanAccessResource(RoleClient, ResourceProgress, ActionRead, "user-1", "user-1"))
	})

	t.Run("non-elevated caller denied foreign row", func(t *testing.T) {
		assert.False(t, engine.CanAccessResource(RoleClient, ResourceProgress, ActionRead, "user-1", "user-2"))
		assert.False(t, engine.CanAccessResource(RoleCandidate, ResourceProgress, ActionRead, "user-1", "user-2"))
	})

	t.Run("unknown owner falls back to resource check", func(t *testing.T) {
		assert.True(t, engine.CanAccessResource(RoleClient, ResourceProgress, ActionRead, "", "user-2"))
		assert.True(t, engine.CanAccessResource(RoleClient, ResourceProgress, ActionRead, "user-1", ""))
	})

	t.Run("resource denial wins over ownership", func(t *testing.T) {
		assert.False(t, engine.CanAccessResource(RoleCandidate, ResourceUsers, ActionRead, "user-1", "user-1"))
	})
}

func TestHasRole(t *testing.T) {
	engine := NewEngine(nil)

	assert.True(t, engine.HasRole(RoleManager, RoleAdmin, RoleManager))
	assert.False(t, engine.HasRole(RoleClient, RoleAdmin, RoleManager))
	assert.False(t, engine.HasRole(RoleAdmin), "empty required set matches nothing")
}

func TestRole(t *testing.T) {
	assert.True(t, RoleAdmin.Elevated())
	assert.True(t, RoleManager.Elevated())
	assert.False(t, RoleClient.Elevated())
	assert.False(t, RoleCandidate.Elevated())

	role, err := ParseRole("client")
	assert.NoError(t, err)
	assert.Equal(t, RoleClient, role)

	_, err = ParseRole("superuser")
	assert.Error(t, err)

	_, err = ParseRole("")
	assert.Error(t, err)
}
