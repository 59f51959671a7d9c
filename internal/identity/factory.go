package identity

import (
	"time"

	"github.com/mehmetcc/denticore/internal/license"
)

// CurrentUserParams carries everything needed to build a CurrentUser from
// verified claims.
type CurrentUserParams struct {
	ID             string
	Email          string
	Roles          []string
	Permissions    []Permission
	OrganizationID string
	ClinicID       string
	CabinetID      string
	Subscription   *license.Subscription
}

// NewCurrentUser validates the params and builds an immutable CurrentUser.
// All collection fields are copied so later mutation of the params cannot
// reach into the constructed value. The flat organization/clinic/tenant
// fields are populated with the exact same values as the nested tenant
// context.
func NewCurrentUser(p CurrentUserParams) (*CurrentUser, error) {
	if p.ID == "" {
		return nil, ErrMissingUserID
	}
	if p.Email == "" {
		return nil, ErrMissingEmail
	}
	if len(p.Roles) == 0 {
		return nil, ErrMissingRoles
	}
	if p.Permissions == nil {
		return nil, ErrNilPermissions
	}
	if p.OrganizationID == "" {
		return nil, ErrMissingOrganizationID
	}

	tenant := NewTenantContext(p.OrganizationID, p.ClinicID)

	return &CurrentUser{
		ID:             p.ID,
		Email:          p.Email,
		Roles:          copyRoles(p.Roles),
		Permissions:    copyPermissions(p.Permissions),
		CabinetID:      p.CabinetID,
		Subscription:   copySubscription(p.Subscription),
		Tenant:         tenant,
		OrganizationID: tenant.OrganizationID,
		ClinicID:       tenant.ClinicID,
		TenantID:       tenant.TenantID,
	}, nil
}

// NewTenantContext derives the tenant id: clinic id when present, otherwise
// organization id.
func NewTenantContext(organizationID, clinicID string) CurrentTenant {
	tenantID := organizationID
	if clinicID != "" {
		tenantID = clinicID
	}
	return CurrentTenant{
		OrganizationID: organizationID,
		ClinicID:       clinicID,
		TenantID:       tenantID,
	}
}

// TenantContext returns the tenant-only view of a user.
func TenantContext(u *CurrentUser) CurrentTenant {
	return u.Tenant
}

// SessionParams carries the inputs for session construction.
type SessionParams struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	IP        string
	UserAgent string
	DeviceID  string
	Metadata  map[string]string
}

// NewSession validates the params and stamps CreatedAt/LastActivityAt to
// the construction instant.
func NewSession(p SessionParams) (*Session, error) {
	if p.ID == "" {
		return nil, ErrMissingSessionID
	}
	if p.UserID == "" {
		return nil, ErrMissingUserID
	}
	now := time.Now()
	if !p.ExpiresAt.After(now) {
		return nil, ErrSessionExpiryNotInFuture
	}
	return &Session{
		ID:             p.ID,
		UserID:         p.UserID,
		CreatedAt:      now,
		ExpiresAt:      p.ExpiresAt,
		LastActivityAt: now,
		IP:             p.IP,
		UserAgent:      p.UserAgent,
		DeviceID:       p.DeviceID,
		Metadata:       copyMetadata(p.Metadata),
	}, nil
}

func copyRoles(roles []string) []string {
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

func copyPermissions(perms []Permission) []Permission {
	out := make([]Permission, len(perms))
	for i, p := range perms {
		cp := Permission{Resource: p.Resource, Action: p.Action}
		if p.Constraints != nil {
			cp.Constraints = make(map[string]string, len(p.Constraints))
			for k, v := range p.Constraints {
				cp.Constraints[k] = v
			}
		}
		out[i] = cp
	}
	return out
}

func copySubscription(sub *license.Subscription) *license.Subscription {
	if sub == nil {
		return nil
	}
	cp := *sub
	cp.Modules = make([]license.ModuleCode, len(sub.Modules))
	copy(cp.Modules, sub.Modules)
	if sub.GracePeriodEndsAt != nil {
		end := *sub.GracePeriodEndsAt
		cp.GracePeriodEndsAt = &end
	}
	return &cp
}

func copyMetadata(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
