// Package rbac holds the static role/permission configuration and the engine
// that evaluates access requests against it. The engine is pure lookup logic
// with a default-deny policy; it has no dependencies and no mutable state.
package rbac

// Engine evaluates whether a role may perform an action on a resource.
// It is safe for concurrent use: the table is read-only after construction.
type Engine struct {
	table Table
}

// NewEngine builds an engine over the given permission table. Passing nil
// uses the default process-wide configuration.
func NewEngine(table Table) *Engine {
	if table == nil {
		table = DefaultTable()
	}
	return &Engine{table: table}
}

// CanAccess reports whether the role holds a permission matching the
// requested resource and action, with "*" matching anything on either side.
// Admin short-circuits to true. Unknown roles and unmatched requests deny.
func (e *Engine) CanAccess(role Role, resource string, action Action) bool {
	if role == RoleAdmin {
		return true
	}
	for _, perm := range e.table[role] {
		if perm.Resource != ResourceAny && perm.Resource != resource {
			continue
		}
		for _, a := range perm.Actions {
			if a == ActionAny || a == action {
				return true
			}
		}
	}
	return false
}

// CanAccessResource applies CanAccess plus a row-level ownership check: a
// non-elevated caller may only reach rows it owns. The ownership check only
// engages when both IDs are known; callers that cannot resolve an owner fall
// back to the coarse resource check.
func (e *Engine) CanAccessResource(role Role, resource string, action Action, ownerID, userID string) bool {
	if !e.CanAccess(role, resource, action) {
		return false
	}
	if role.Elevated() {
		return true
	}
	if ownerID == "" || userID == "" {
		return true
	}
	return ownerID == userID
}

// HasRole reports whether the role is among the required set. An empty
// required set matches nothing: callers declare roles explicitly or skip
// the check entirely.
func (e *Engine) HasRole(role Role, required ...Role) bool {
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
