// Package tenant enforces the isolation boundary between tenant scopes.
// Every check comes in two flavors: a boolean predicate for branching and a
// validating counterpart that returns a typed error for boundary
// enforcement. Comparisons run on the derived tenant id (or, for
// organization-level checks, the organization id) and never on the clinic id
// alone, since a missing clinic id signals organization-level scope rather
// than a mismatch.
package tenant

import (
	"github.com/mehmetcc/denticore/internal/identity"
)

// CanAccessOrganization reports whether the user belongs to the given
// organization.
func CanAccessOrganization(u *identity.CurrentUser, organizationID string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	return u.Tenant.OrganizationID == organizationID, nil
}

// CanAccessClinic reports whether the user's scope matches the given clinic
// exactly. An organization-level user does NOT implicitly match every clinic
// under their organization; broadening that rule needs a clinic-to-
// organization lookup this package deliberately does not have.
func CanAccessClinic(u *identity.CurrentUser, clinicID string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	return u.Tenant.ClinicID == clinicID && clinicID != "", nil
}

// CanAccessTenant reports whether the user's derived tenant id matches.
func CanAccessTenant(u *identity.CurrentUser, tenantID string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	return u.Tenant.TenantID == tenantID, nil
}

// SameTenant reports whether two tenant contexts resolve to the same scope.
func SameTenant(a, b identity.CurrentTenant) bool {
	return a.TenantID == b.TenantID
}

// ValidateOrganizationAccess enforces the organization boundary.
func ValidateOrganizationAccess(u *identity.CurrentUser, organizationID string) error {
	ok, err := CanAccessOrganization(u, organizationID)
	if err != nil {
		return err
	}
	if !ok {
		return &IsolationError{
			Boundary:  BoundaryOrganization,
			UserScope: u.Tenant.OrganizationID,
			DataScope: organizationID,
		}
	}
	return nil
}

// ValidateClinicAccess enforces the clinic boundary.
func ValidateClinicAccess(u *identity.CurrentUser, clinicID string) error {
	ok, err := CanAccessClinic(u, clinicID)
	if err != nil {
		return err
	}
	if !ok {
		return &IsolationError{
			Boundary:  BoundaryClinic,
			UserScope: u.Tenant.ClinicID,
			DataScope: clinicID,
		}
	}
	return nil
}

// ValidateTenantAccess enforces the derived tenant boundary.
func ValidateTenantAccess(u *identity.CurrentUser, tenantID string) error {
	ok, err := CanAccessTenant(u, tenantID)
	if err != nil {
		return err
	}
	if !ok {
		return &IsolationError{
			Boundary:  BoundaryTenant,
			UserScope: u.Tenant.TenantID,
			DataScope: tenantID,
		}
	}
	return nil
}

// EnsureTenantIsolation compares a requester's scope against a target
// resource's scope. The organization boundary is checked first so an
// organization mismatch is reported as such (naming both organization ids),
// and only then the full derived tenant id.
func EnsureTenantIsolation(userCtx, dataCtx *identity.CurrentTenant) error {
	if userCtx == nil || dataCtx == nil {
		return ErrNilTenantContext
	}
	if userCtx.OrganizationID != dataCtx.OrganizationID {
		return &IsolationError{
			Boundary:  BoundaryOrganization,
			UserScope: userCtx.OrganizationID,
			DataScope: dataCtx.OrganizationID,
		}
	}
	if userCtx.TenantID != dataCtx.TenantID {
		return &IsolationError{
			Boundary:  BoundaryTenant,
			UserScope: userCtx.TenantID,
			DataScope: dataCtx.TenantID,
		}
	}
	return nil
}
