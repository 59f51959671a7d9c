package rbac

// Role names used across the platform. Stored in tokens as plain strings;
// the constants keep call sites honest.
const (
	RoleSuperAdmin   = "super-admin"
	RoleOrgAdmin     = "org-admin"
	RoleClinicAdmin  = "clinic-admin"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleReceptionist = "receptionist"
	RolePatient      = "patient"
)

// Scope is the normalized resource:action projection of a permission,
// always lowercase.
type Scope struct {
	Resource string
	Action   string
}

func (s Scope) String() string {
	return s.Resource + ":" + s.Action
}
