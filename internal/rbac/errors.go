package rbac

import "errors"

// Precondition failures. A missing user or an empty requirement list is a
// programming error: silently answering false would be indistinguishable
// from a genuinely unauthorized user.
var (
	ErrNilUser          = errors.New("rbac: user context is required")
	ErrEmptyRoles       = errors.New("rbac: at least one role must be required")
	ErrEmptyScopes      = errors.New("rbac: at least one scope must be required")
	ErrMalformedScope   = errors.New("rbac: scope must look like resource:action")
	ErrEmptyRequirement = errors.New("rbac: requirement must not be empty")
)
