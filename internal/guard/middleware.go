package guard

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mehmetcc/denticore/internal/httpx"
	"github.com/mehmetcc/denticore/internal/identity"
	"github.com/mehmetcc/denticore/internal/keys"
	"github.com/mehmetcc/denticore/internal/license"
	"github.com/mehmetcc/denticore/internal/rbac"
	"github.com/mehmetcc/denticore/internal/subscription"
	"github.com/mehmetcc/denticore/internal/token"
	"go.uber.org/zap"
)

// overridable in tests
var timeNow = time.Now

// PermissionResolver turns verified claims into the user's permission set.
// Tokens carry roles, not permissions; the host decides how roles expand.
// A nil resolver yields an empty set.
type PermissionResolver func(claims *token.AccessClaims) []identity.Permission

// Guard is the host-framework adapter: it authenticates the request, builds
// the identity context, and evaluates the route's requirements against the
// rbac and license engines. Everything it rejects maps to a transport
// response here and nowhere else.
type Guard struct {
	logger       *zap.Logger
	verifier     token.Verifier
	keyProvider  keys.Provider
	issuer       string
	registry     *Registry
	licenses     *license.Engine
	subscription subscription.Repo
	permissions  PermissionResolver
}

type Options struct {
	Verifier    token.Verifier
	KeyProvider keys.Provider
	Issuer      string
	Registry    *Registry
	Licenses    *license.Engine
	// Subscriptions is optional; when set it backfills license state for
	// tokens without an embedded subscription claim.
	Subscriptions subscription.Repo
	Permissions   PermissionResolver
}

func New(logger *zap.Logger, opts Options) *Guard {
	licenses := opts.Licenses
	if licenses == nil {
		licenses = license.NewEngine()
	}
	return &Guard{
		logger:       logger,
		verifier:     opts.Verifier,
		keyProvider:  opts.KeyProvider,
		issuer:       opts.Issuer,
		registry:     opts.Registry,
		licenses:     licenses,
		subscription: opts.Subscriptions,
		permissions:  opts.Permissions,
	}
}

// Middleware is mounted on a chi router and consults the registry using the
// matched route pattern.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		req, registered := g.registry.Lookup(r.Method, pattern)
		if !registered {
			// unregistered routes still require authentication
			req = Requirements{}
		}
		if req.Public {
			next.ServeHTTP(w, r)
			return
		}

		user, ok := g.authenticate(w, r)
		if !ok {
			return
		}
		if !g.authorize(w, r, user, req) {
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (g *Guard) authenticate(w http.ResponseWriter, r *http.Request) (*identity.CurrentUser, bool) {
	raw, ok := bearerToken(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnauthorized,
			Message: "missing bearer token",
		})
		return nil, false
	}

	trusted, err := g.keyProvider.Keys(r.Context())
	if err != nil {
		g.logger.Error("failed to load verification keys", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInternal,
			Message: "internal server error",
		})
		return nil, false
	}

	claims, err := g.verifier.VerifyAccess(raw, trusted, g.issuer)
	if err != nil {
		code := token.CodeOf(err)
		g.logger.Warn("token rejected", zap.String("code", string(code)), zap.Error(err))
		httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[string]{
			Code:    httpx.ErrUnauthorized,
			Message: "invalid token",
			Details: string(code),
		})
		return nil, false
	}

	user, err := g.buildUser(r, claims)
	if err != nil {
		g.logger.Warn("failed to build identity context", zap.Error(err))
		httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnauthorized,
			Message: "invalid token",
		})
		return nil, false
	}
	return user, true
}

func (g *Guard) buildUser(r *http.Request, claims *token.AccessClaims) (*identity.CurrentUser, error) {
	perms := []identity.Permission{}
	if g.permissions != nil {
		perms = g.permissions(claims)
	}

	sub, err := g.resolveSubscription(r, claims)
	if err != nil {
		return nil, err
	}

	return identity.NewCurrentUser(identity.CurrentUserParams{
		ID:             claims.Sub,
		Email:          claims.Email,
		Roles:          claims.Roles,
		Permissions:    perms,
		OrganizationID: claims.OrganizationID,
		ClinicID:       claims.ClinicID,
		CabinetID:      claims.CabinetID,
		Subscription:   sub,
	})
}

// resolveSubscription prefers the claim embedded at issuance and falls back
// to the store. No claim and no store means no license state, which the
// engine fails closed on when a route is module-gated.
func (g *Guard) resolveSubscription(r *http.Request, claims *token.AccessClaims) (*license.Subscription, error) {
	if claims.Subscription != nil {
		modules := make([]license.ModuleCode, len(claims.Subscription.Modules))
		for i, m := range claims.Subscription.Modules {
			modules[i] = license.ModuleCode(m)
		}
		return &license.Subscription{
			Status:  license.Status(claims.Subscription.Status),
			Modules: modules,
		}, nil
	}
	if g.subscription == nil {
		return nil, nil
	}
	rec, err := g.subscription.FindByOrganization(r.Context(), claims.OrganizationID)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.License(), nil
}

func (g *Guard) authorize(w http.ResponseWriter, r *http.Request, user *identity.CurrentUser, req Requirements) bool {
	if len(req.Roles) > 0 {
		var ok bool
		var err error
		if req.RolesMatchAll {
			ok, err = rbac.HasAllRoles(user, req.Roles...)
		} else {
			ok, err = rbac.HasAnyRole(user, req.Roles...)
		}
		if err != nil {
			g.internalError(w, err)
			return false
		}
		if !ok {
			g.forbidden(w, user, "insufficient role")
			return false
		}
	}

	if len(req.Permissions) > 0 {
		ok, err := g.checkPermissions(user, req)
		if err != nil {
			g.internalError(w, err)
			return false
		}
		if !ok {
			g.forbidden(w, user, "insufficient permissions")
			return false
		}
	}

	return g.checkLicense(w, r, user, req)
}

func (g *Guard) checkPermissions(user *identity.CurrentUser, req Requirements) (bool, error) {
	for _, p := range req.Permissions {
		ok, err := rbac.HasPermission(user, p.Resource, p.Action)
		if err != nil {
			return false, err
		}
		if req.PermissionsMatchAll && !ok {
			return false, nil
		}
		if !req.PermissionsMatchAll && ok {
			return true, nil
		}
	}
	return req.PermissionsMatchAll, nil
}

func (g *Guard) checkLicense(w http.ResponseWriter, r *http.Request, user *identity.CurrentUser, req Requirements) bool {
	sub := user.Subscription
	if sub == nil && req.Module == "" {
		// routes without a module gate stay usable for tenants whose
		// license state is unknown to us; module-gated ones do not
		return true
	}

	var decision license.Decision
	if req.Module != "" {
		decision = g.licenses.EvaluateModuleAccess(sub, req.Module, r.Method)
	} else {
		decision = g.licenses.EvaluateAccess(sub, r.Method)
	}

	if decision.Allowed && !req.AllowGracePeriod && sub.GraceActive(timeNow()) {
		decision = license.Decision{
			Code:   license.DenialSuspended,
			Reason: "This feature is unavailable while your subscription is suspended.",
		}
	}

	if decision.Allowed {
		return true
	}

	status := http.StatusForbidden
	code := httpx.ErrForbidden
	if decision.Code == license.DenialExpired {
		status = http.StatusPaymentRequired
		code = httpx.ErrPaymentRequired
	}
	g.logger.Info("license denial",
		zap.String("organization_id", user.Tenant.OrganizationID),
		zap.String("code", string(decision.Code)),
	)
	httpx.WriteError(w, status, httpx.ErrorResponse[string]{
		Code:    code,
		Message: decision.Reason,
		Details: string(decision.Code),
	})
	return false
}

func (g *Guard) forbidden(w http.ResponseWriter, user *identity.CurrentUser, message string) {
	g.logger.Info("access denied",
		zap.String("user_id", user.ID),
		zap.String("tenant_id", user.Tenant.TenantID),
		zap.String("reason", message),
	)
	httpx.WriteError(w, http.StatusForbidden, httpx.ErrorResponse[any]{
		Code:    httpx.ErrForbidden,
		Message: message,
	})
}

func (g *Guard) internalError(w http.ResponseWriter, err error) {
	g.logger.Error("guard misconfiguration", zap.Error(err))
	httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
		Code:    httpx.ErrInternal,
		Message: "internal server error",
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(rest) == "" {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
