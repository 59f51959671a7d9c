package guard

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mehmetcc/denticore/internal/identity"
	"github.com/mehmetcc/denticore/internal/keys"
	"github.com/mehmetcc/denticore/internal/license"
	"github.com/mehmetcc/denticore/internal/rbac"
	"github.com/mehmetcc/denticore/internal/subscription"
	"github.com/mehmetcc/denticore/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testIssuer = "https://auth.example.com"

type fakeSubscriptionRepo struct {
	records map[string]*subscription.Record
}

func (f *fakeSubscriptionRepo) FindByOrganization(ctx context.Context, organizationID string) (*subscription.Record, error) {
	rec, ok := f.records[organizationID]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	return rec, nil
}

func (f *fakeSubscriptionRepo) Upsert(ctx context.Context, rec *subscription.Record) error {
	f.records[rec.OrganizationID] = rec
	return nil
}

type guardFixture struct {
	key      *rsa.PrivateKey
	registry *Registry
	repo     *fakeSubscriptionRepo
	router   chi.Router
}

func newFixture(t *testing.T) *guardFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	registry := NewRegistry()
	repo := &fakeSubscriptionRepo{records: map[string]*subscription.Record{}}

	g := New(zap.NewNop(), Options{
		Verifier:      token.NewVerifier(zap.NewNop()),
		KeyProvider:   keys.Static(&key.PublicKey),
		Issuer:        testIssuer,
		Registry:      registry,
		Licenses:      license.NewEngine(),
		Subscriptions: repo,
	})

	r := chi.NewRouter()
	r.Use(g.Middleware)
	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	r.Get("/public", ok)
	r.Get("/private", ok)
	r.Get("/admin", ok)
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]string{"tenant": u.Tenant.TenantID})
	})
	r.Get("/tele", ok)
	r.Post("/tele", ok)

	registry.Register(http.MethodGet, "/public", Requirements{Public: true})
	registry.Register(http.MethodGet, "/whoami", Requirements{AllowGracePeriod: true})
	registry.Register(http.MethodGet, "/admin", Requirements{Roles: []string{rbac.RoleOrgAdmin}, AllowGracePeriod: true})
	registry.Register(http.MethodGet, "/tele", Requirements{Module: license.ModuleTeledentistry, AllowGracePeriod: true})
	registry.Register(http.MethodPost, "/tele", Requirements{Module: license.ModuleTeledentistry, AllowGracePeriod: true})

	return &guardFixture{key: key, registry: registry, repo: repo, router: r}
}

func (f *guardFixture) sign(t *testing.T, claims *token.AccessClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func (f *guardFixture) request(t *testing.T, method, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func accessClaims(roles ...string) *token.AccessClaims {
	return &token.AccessClaims{
		Sub:            uuid.NewString(),
		Email:          "someone@example.com",
		Roles:          roles,
		OrganizationID: "org-a",
		ClinicID:       "clinic-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestGuard_PublicRoute(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/public", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_MissingToken(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_MalformedAuthorizationHeader(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_InvalidToken(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/private", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_ValidTokenReachesHandler(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/whoami", f.sign(t, accessClaims(rbac.RoleDoctor)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clinic-1")
}

func TestGuard_UnregisteredRouteRequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(t, http.MethodGet, "/private", f.sign(t, accessClaims(rbac.RoleDoctor)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_RoleDenied(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/admin", f.sign(t, accessClaims(rbac.RoleDoctor)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.request(t, http.MethodGet, "/admin", f.sign(t, accessClaims(rbac.RoleOrgAdmin)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_ModuleGate(t *testing.T) {
	f := newFixture(t)

	// subscription claim embedded in the token, module missing
	claims := accessClaims(rbac.RoleDoctor)
	claims.Subscription = &token.SubscriptionClaim{
		Status:  string(license.StatusActive),
		Modules: []string{string(license.ModuleScheduling)},
	}
	rec := f.request(t, http.MethodGet, "/tele", f.sign(t, claims))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "module_not_enabled")

	// module plus its prerequisite closure enabled
	claims.Subscription.Modules = []string{
		string(license.ModuleScheduling),
		string(license.ModuleClinicalBasic),
		string(license.ModuleTeledentistry),
	}
	rec = f.request(t, http.MethodGet, "/tele", f.sign(t, claims))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_SubscriptionFromStore(t *testing.T) {
	f := newFixture(t)
	f.repo.records["org-a"] = &subscription.Record{
		OrganizationID: "org-a",
		Status:         license.StatusActive,
		Modules: []license.ModuleCode{
			license.ModuleScheduling,
			license.ModuleClinicalBasic,
			license.ModuleTeledentistry,
		},
	}

	rec := f.request(t, http.MethodGet, "/tele", f.sign(t, accessClaims(rbac.RoleDoctor)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_ExpiredSubscriptionIsPaymentRequired(t *testing.T) {
	f := newFixture(t)
	f.repo.records["org-a"] = &subscription.Record{
		OrganizationID: "org-a",
		Status:         license.StatusExpired,
	}

	rec := f.request(t, http.MethodGet, "/tele", f.sign(t, accessClaims(rbac.RoleDoctor)))
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "subscription_expired")
}

func TestGuard_GracePeriodReadsOnly(t *testing.T) {
	f := newFixture(t)
	end := time.Now().Add(48 * time.Hour)
	f.repo.records["org-a"] = &subscription.Record{
		OrganizationID:    "org-a",
		Status:            license.StatusSuspended,
		InGracePeriod:     true,
		GracePeriodEndsAt: &end,
	}

	bearer := f.sign(t, accessClaims(rbac.RoleDoctor))

	rec := f.request(t, http.MethodGet, "/tele", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/tele", bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "subscription_suspended")
}

func TestGuard_PermissionResolver(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	registry := NewRegistry()
	registry.Register(http.MethodGet, "/reports", Requirements{
		Permissions:      []RequiredPermission{{Resource: "reports", Action: "read"}},
		AllowGracePeriod: true,
	})

	g := New(zap.NewNop(), Options{
		Verifier:    token.NewVerifier(zap.NewNop()),
		KeyProvider: keys.Static(&key.PublicKey),
		Issuer:      testIssuer,
		Registry:    registry,
		Permissions: func(claims *token.AccessClaims) []identity.Permission {
			for _, role := range claims.Roles {
				if role == rbac.RoleOrgAdmin {
					return []identity.Permission{{Resource: "reports", Action: "read"}}
				}
			}
			return []identity.Permission{}
		},
	})

	r := chi.NewRouter()
	r.Use(g.Middleware)
	r.Get("/reports", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	sign := func(roles ...string) string {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, accessClaims(roles...)).SignedString(key)
		require.NoError(t, err)
		return signed
	}

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+sign(rbac.RoleOrgAdmin))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+sign(rbac.RoleDoctor))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	u, err := identity.NewCurrentUser(identity.CurrentUserParams{
		ID:             "user-1",
		Email:          "someone@example.com",
		Roles:          []string{rbac.RoleDoctor},
		Permissions:    []identity.Permission{},
		OrganizationID: "org-a",
	})
	require.NoError(t, err)

	req = req.WithContext(WithUser(req.Context(), u))
	gctx := NewContext(req)
	assert.Equal(t, req, gctx.Request())
	assert.Equal(t, u, gctx.User())

	bare := NewContext(httptest.NewRequest(http.MethodGet, "/y", nil))
	assert.Nil(t, bare.User())
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	_, ok := bearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	raw, ok := bearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", raw)

	req.Header.Set("Authorization", "bearer abc")
	_, ok = bearerToken(req)
	assert.True(t, ok)

	req.Header.Set("Authorization", "Bearer ")
	_, ok = bearerToken(req)
	assert.False(t, ok)
}
