package authz

import "aegis/internal/rbac"

// Operation is the declarative metadata attached to a route: which roles may
// call it and which {resource, action} pair it touches. The gate and the
// audit interceptor both consult it at dispatch time; routes declaring
// neither roles nor a resource are public and unaudited.
type Operation struct {
	Roles    []rbac.Role
	Resource string
	Action   rbac.Action
}

// Public reports whether the operation declares no authorization metadata.
func (op Operation) Public() bool {
	return len(op.Roles) == 0 && op.Resource == ""
}

// Gated reports whether the operation declares a {resource, action} pair,
// which is what makes it subject to permission checks and audit observation.
func (op Operation) Gated() bool {
	return op.Resource != ""
}
