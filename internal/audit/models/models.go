package models

import (
	"net/http"
	"time"
)

// Action classifies what an audit entry records. Entries derived from HTTP
// traffic map the request method onto one of these.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// IsValid checks if the action is one of the supported enum values.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// ActionForMethod maps an HTTP method to an audit action. Unknown methods
// default to READ so unusual verbs still leave a trail.
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodGet:
		return ActionRead
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// Entry is an immutable audit record: who did what to which entity and when,
// plus the surrounding request context. Entries are append-only; nothing in
// the system updates or deletes them. UserID is a reporting relation to the
// acting user, not a dependency the user can alter.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id,omitempty"`
	Details   string    `json:"details,omitempty"` // serialized JSON payload
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows audit queries. A zero field means "no constraint"; the
// service forcibly sets UserID for non-elevated callers before any store
// access, so row scoping cannot be bypassed via filters.
type Filter struct {
	UserID string
	Entity string
	Action Action
	From   *time.Time
	To     *time.Time
}

// Matches reports whether the entry satisfies the filter. Shared by the
// in-memory store; the Postgres store expresses the same predicate in SQL.
func (f Filter) Matches(e *Entry) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Entity != "" && e.Entity != f.Entity {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// Stats aggregates the audit trail for reporting dashboards.
type Stats struct {
	Total    int            `json:"total"`
	ByAction map[Action]int `json:"by_action"`
	ByEntity map[string]int `json:"by_entity"`
	Recent   []*Entry       `json:"recent"`
}
