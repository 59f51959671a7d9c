package tenant

import (
	"testing"

	"github.com/mehmetcc/denticore/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clinicUser(t *testing.T) *identity.CurrentUser {
	t.Helper()
	u, err := identity.NewCurrentUser(identity.CurrentUserParams{
		ID:             "user-1",
		Email:          "dentist@example.com",
		Roles:          []string{"doctor"},
		Permissions:    []identity.Permission{},
		OrganizationID: "org-a",
		ClinicID:       "clinic-1",
	})
	require.NoError(t, err)
	return u
}

func orgUser(t *testing.T) *identity.CurrentUser {
	t.Helper()
	u, err := identity.NewCurrentUser(identity.CurrentUserParams{
		ID:             "user-2",
		Email:          "admin@example.com",
		Roles:          []string{"org-admin"},
		Permissions:    []identity.Permission{},
		OrganizationID: "org-a",
	})
	require.NoError(t, err)
	return u
}

func TestCanAccessOrganization(t *testing.T) {
	u := clinicUser(t)

	ok, err := CanAccessOrganization(u, "org-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanAccessOrganization(u, "org-b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessClinic_ExactMatchOnly(t *testing.T) {
	clinic := clinicUser(t)
	org := orgUser(t)

	ok, err := CanAccessClinic(clinic, "clinic-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanAccessClinic(clinic, "clinic-2")
	require.NoError(t, err)
	assert.False(t, ok)

	// an organization-level user does not implicitly match clinics in
	// their organization
	ok, err = CanAccessClinic(org, "clinic-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessTenant(t *testing.T) {
	clinic := clinicUser(t)
	org := orgUser(t)

	ok, err := CanAccessTenant(clinic, "clinic-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanAccessTenant(org, "org-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanAccessTenant(org, "clinic-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicates_NilUser(t *testing.T) {
	_, err := CanAccessOrganization(nil, "org-a")
	assert.ErrorIs(t, err, ErrNilUser)

	_, err = CanAccessClinic(nil, "clinic-1")
	assert.ErrorIs(t, err, ErrNilUser)

	_, err = CanAccessTenant(nil, "t")
	assert.ErrorIs(t, err, ErrNilUser)

	assert.ErrorIs(t, ValidateOrganizationAccess(nil, "org-a"), ErrNilUser)
}

func TestValidateOrganizationAccess(t *testing.T) {
	u := clinicUser(t)

	assert.NoError(t, ValidateOrganizationAccess(u, "org-a"))

	err := ValidateOrganizationAccess(u, "org-b")
	require.Error(t, err)
	var iso *IsolationError
	require.ErrorAs(t, err, &iso)
	assert.Equal(t, BoundaryOrganization, iso.Boundary)
	assert.Equal(t, "org-a", iso.UserScope)
	assert.Equal(t, "org-b", iso.DataScope)
}

func TestEnsureTenantIsolation_OrganizationBoundaryFirst(t *testing.T) {
	userCtx := identity.NewTenantContext("org-a", "clinic-1")
	dataCtx := identity.NewTenantContext("org-b", "clinic-2")

	err := EnsureTenantIsolation(&userCtx, &dataCtx)
	require.Error(t, err)

	var iso *IsolationError
	require.ErrorAs(t, err, &iso)
	// the organization mismatch must be reported, naming organization ids
	// rather than the derived tenant ids
	assert.Equal(t, BoundaryOrganization, iso.Boundary)
	assert.Equal(t, "org-a", iso.UserScope)
	assert.Equal(t, "org-b", iso.DataScope)
	assert.Contains(t, err.Error(), "org-a")
	assert.Contains(t, err.Error(), "org-b")
}

func TestEnsureTenantIsolation_TenantBoundary(t *testing.T) {
	userCtx := identity.NewTenantContext("org-a", "clinic-1")
	dataCtx := identity.NewTenantContext("org-a", "clinic-2")

	err := EnsureTenantIsolation(&userCtx, &dataCtx)
	require.Error(t, err)

	var iso *IsolationError
	require.ErrorAs(t, err, &iso)
	assert.Equal(t, BoundaryTenant, iso.Boundary)
	assert.Equal(t, "clinic-1", iso.UserScope)
	assert.Equal(t, "clinic-2", iso.DataScope)
}

func TestEnsureTenantIsolation_SameScope(t *testing.T) {
	userCtx := identity.NewTenantContext("org-a", "clinic-1")
	dataCtx := identity.NewTenantContext("org-a", "clinic-1")
	assert.NoError(t, EnsureTenantIsolation(&userCtx, &dataCtx))

	orgOnly := identity.NewTenantContext("org-a", "")
	dataOrg := identity.NewTenantContext("org-a", "")
	assert.NoError(t, EnsureTenantIsolation(&orgOnly, &dataOrg))
}

func TestEnsureTenantIsolation_OrgLevelVersusClinicLevel(t *testing.T) {
	// same organization but different derived tenant: an absent clinic id
	// means organization scope, which is not the same tenant as a clinic
	orgCtx := identity.NewTenantContext("org-a", "")
	clinicCtx := identity.NewTenantContext("org-a", "clinic-1")

	err := EnsureTenantIsolation(&orgCtx, &clinicCtx)
	require.Error(t, err)
	var iso *IsolationError
	require.ErrorAs(t, err, &iso)
	assert.Equal(t, BoundaryTenant, iso.Boundary)
}

func TestEnsureTenantIsolation_NilContext(t *testing.T) {
	ctx := identity.NewTenantContext("org-a", "")
	assert.ErrorIs(t, EnsureTenantIsolation(nil, &ctx), ErrNilTenantContext)
	assert.ErrorIs(t, EnsureTenantIsolation(&ctx, nil), ErrNilTenantContext)
}

func TestSameTenant(t *testing.T) {
	a := identity.NewTenantContext("org-a", "clinic-1")
	b := identity.NewTenantContext("org-a", "clinic-1")
	c := identity.NewTenantContext("org-a", "")
	assert.True(t, SameTenant(a, b))
	assert.False(t, SameTenant(a, c))
}
