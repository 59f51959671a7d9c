// Package rbac answers role, permission and scope questions about a
// CurrentUser. All predicates are pure; a nil user or empty requirement is
// reported as an error, never as false.
package rbac

import (
	"strings"

	"github.com/mehmetcc/denticore/internal/identity"
)

// HasRole reports whether the user carries the exact role.
func HasRole(u *identity.CurrentUser, role string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	if role == "" {
		return false, ErrEmptyRequirement
	}
	for _, r := range u.Roles {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyRole reports whether the user carries at least one of the roles.
func HasAnyRole(u *identity.CurrentUser, roles ...string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	if len(roles) == 0 {
		return false, ErrEmptyRoles
	}
	for _, role := range roles {
		for _, r := range u.Roles {
			if r == role {
				return true, nil
			}
		}
	}
	return false, nil
}

// HasAllRoles reports whether the user carries every one of the roles.
func HasAllRoles(u *identity.CurrentUser, roles ...string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	if len(roles) == 0 {
		return false, ErrEmptyRoles
	}
	for _, role := range roles {
		ok, err := HasRole(u, role)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// The admin hierarchy is cumulative: a super-admin passes every admin check,
// an org-admin passes the clinic-admin check.

func IsSuperAdmin(u *identity.CurrentUser) (bool, error) {
	return HasAnyRole(u, RoleSuperAdmin)
}

func IsOrgAdmin(u *identity.CurrentUser) (bool, error) {
	return HasAnyRole(u, RoleOrgAdmin, RoleSuperAdmin)
}

func IsClinicAdmin(u *identity.CurrentUser) (bool, error) {
	return HasAnyRole(u, RoleClinicAdmin, RoleOrgAdmin, RoleSuperAdmin)
}

func IsClinicalStaff(u *identity.CurrentUser) (bool, error) {
	return HasAnyRole(u, RoleDoctor, RoleNurse)
}

// HasPermission does an exact resource+action match. No wildcards.
func HasPermission(u *identity.CurrentUser, resource, action string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	if resource == "" || action == "" {
		return false, ErrEmptyRequirement
	}
	for _, p := range u.Permissions {
		if p.Resource == resource && p.Action == action {
			return true, nil
		}
	}
	return false, nil
}

// ParseScope normalizes a resource:action string to lowercase, splitting on
// the first colon. A missing colon or empty side is malformed and fails
// fast instead of quietly answering false.
func ParseScope(raw string) (Scope, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	resource, action, found := strings.Cut(normalized, ":")
	if !found || resource == "" || action == "" {
		return Scope{}, ErrMalformedScope
	}
	return Scope{Resource: resource, Action: action}, nil
}

// HasScope reports whether the user holds a permission matching the scope.
// Permission matching is case-insensitive since scopes are normalized.
func HasScope(u *identity.CurrentUser, raw string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	scope, err := ParseScope(raw)
	if err != nil {
		return false, err
	}
	for _, p := range u.Permissions {
		if strings.ToLower(p.Resource) == scope.Resource && strings.ToLower(p.Action) == scope.Action {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyScope reports whether the user holds at least one of the scopes.
func HasAnyScope(u *identity.CurrentUser, raws ...string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	if len(raws) == 0 {
		return false, ErrEmptyScopes
	}
	for _, raw := range raws {
		ok, err := HasScope(u, raw)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAllScopes reports whether the user holds every one of the scopes.
func HasAllScopes(u *identity.CurrentUser, raws ...string) (bool, error) {
	if u == nil {
		return false, ErrNilUser
	}
	if len(raws) == 0 {
		return false, ErrEmptyScopes
	}
	for _, raw := range raws {
		ok, err := HasScope(u, raw)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
