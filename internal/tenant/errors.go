package tenant

import (
	"errors"
	"fmt"
)

// Precondition failures. These mark programmer errors (a guard forgot to
// build the user context), never an authorization verdict, and must not be
// conflated with a false predicate result.
var (
	ErrNilUser          = errors.New("tenant: user context is required")
	ErrNilTenantContext = errors.New("tenant: tenant context is required")
)

// Boundary names which scope comparison failed.
type Boundary string

const (
	BoundaryOrganization Boundary = "organization"
	BoundaryClinic       Boundary = "clinic"
	BoundaryTenant       Boundary = "tenant"
)

// IsolationError reports a cross-tenant access attempt. Both scopes are
// carried for audit logging.
type IsolationError struct {
	Boundary  Boundary
	UserScope string
	DataScope string
}

func (e *IsolationError) Error() string {
	return fmt.Sprintf("tenant isolation violation: %s boundary: requester %s cannot access %s", e.Boundary, e.UserScope, e.DataScope)
}
