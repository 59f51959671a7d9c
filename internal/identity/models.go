package identity

import (
	"time"

	"github.com/mehmetcc/denticore/internal/license"
)

// Permission pairs a resource type with an action, optionally narrowed by
// constraints. Matching is exact; there are no wildcard semantics.
type Permission struct {
	Resource    string
	Action      string
	Constraints map[string]string
}

// CurrentTenant is the scoping key for isolation checks. TenantID is always
// the clinic id when one is present and the organization id otherwise; an
// absent clinic id means organization-level scope.
type CurrentTenant struct {
	OrganizationID string
	ClinicID       string
	TenantID       string
}

// IsOrganizationLevel and IsClinicLevel are mutually exclusive and
// exhaustive over the presence of ClinicID.
func (t CurrentTenant) IsOrganizationLevel() bool {
	return t.ClinicID == ""
}

func (t CurrentTenant) IsClinicLevel() bool {
	return t.ClinicID != ""
}

// CurrentUser is the immutable per-request identity. It is built once from
// verified claims, never persisted, and discarded at request end.
//
// OrganizationID, ClinicID and TenantID mirror the Tenant field exactly;
// they predate the nested tenant context and are kept for callers that still
// read the flat fields.
type CurrentUser struct {
	ID           string
	Email        string
	Roles        []string
	Permissions  []Permission
	CabinetID    string
	Subscription *license.Subscription
	Tenant       CurrentTenant

	// Deprecated: read Tenant instead.
	OrganizationID string
	// Deprecated: read Tenant instead.
	ClinicID string
	// Deprecated: read Tenant instead.
	TenantID string
}

// Session is the session value object. Persistence is out of scope here;
// only construction and expiry arithmetic live in this package.
type Session struct {
	ID             string
	UserID         string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastActivityAt time.Time
	IP             string
	UserAgent      string
	DeviceID       string
	Metadata       map[string]string
}

// Expired reports whether the session has reached its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
