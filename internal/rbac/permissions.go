package rbac

// Action is a CRUD verb on a protected resource. Wildcard means all verbs.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionAny    Action = "*"
)

// Protected resource names. The gate matches these by string so modules that
// are pure CRUD pass-throughs elsewhere in the system still get uniform
// enforcement here.
const (
	ResourceAny           = "*"
	ResourceUsers         = "users"
	ResourceOrganizations = "organizations"
	ResourceContacts      = "contacts"
	ResourceCourses       = "courses"
	ResourceLessons       = "lessons"
	ResourceProgress      = "progress"
	ResourceAudit         = "audit"
	ResourceConsent       = "consent"
)

// Permission grants a set of actions on one resource. Resource "*" with
// action "*" grants unconditional access and is reserved for admin.
type Permission struct {
	Resource string
	Actions  []Action
}

// Table maps each role to its permission list. It is built once at process
// start and never mutated afterwards, so concurrent reads are safe. Lookups
// for unknown roles return nothing: absence means denial.
type Table map[Role][]Permission

// DefaultTable returns the process-wide permission configuration.
//
// The scoping here is deliberate, reviewed configuration rather than
// per-endpoint exceptions: non-elevated roles get read access plus the
// mutations their workflows need, and row-level ownership is enforced
// separately by the engine for every non-elevated role.
func DefaultTable() Table {
	return Table{
		RoleAdmin: {
			{Resource: ResourceAny, Actions: []Action{ActionAny}},
		},
		RoleManager: {
			{Resource: ResourceUsers, Actions: []Action{ActionRead, ActionUpdate}},
			{Resource: ResourceOrganizations, Actions: []Action{ActionAny}},
			{Resource: ResourceContacts, Actions: []Action{ActionAny}},
			{Resource: ResourceCourses, Actions: []Action{ActionAny}},
			{Resource: ResourceLessons, Actions: []Action{ActionAny}},
			{Resource: ResourceProgress, Actions: []Action{ActionRead, ActionUpdate}},
			{Resource: ResourceAudit, Actions: []Action{ActionRead}},
			{Resource: ResourceConsent, Actions: []Action{ActionRead}},
		},
		RoleClient: {
			{Resource: ResourceOrganizations, Actions: []Action{ActionRead}},
			{Resource: ResourceContacts, Actions: []Action{ActionRead, ActionCreate, ActionUpdate}},
			{Resource: ResourceCourses, Actions: []Action{ActionRead}},
			{Resource: ResourceLessons, Actions: []Action{ActionRead}},
			{Resource: ResourceProgress, Actions: []Action{ActionRead, ActionCreate, ActionUpdate}},
			{Resource: ResourceAudit, Actions: []Action{ActionRead}},
			{Resource: ResourceConsent, Actions: []Action{ActionRead, ActionCreate}},
		},
		RoleCandidate: {
			{Resource: ResourceCourses, Actions: []Action{ActionRead}},
			{Resource: ResourceLessons, Actions: []Action{ActionRead}},
			{Resource: ResourceProgress, Actions: []Action{ActionRead, ActionCreate, ActionUpdate}},
			{Resource: ResourceAudit, Actions: []Action{ActionRead}},
			{Resource: ResourceConsent, Actions: []Action{ActionRead, ActionCreate}},
		},
	}
}
