package guard

import (
	"sync"

	"github.com/mehmetcc/denticore/internal/license"
)

// RequiredPermission names a resource+action pair an endpoint demands.
type RequiredPermission struct {
	Resource string
	Action   string
}

// Requirements is the declarative per-endpoint descriptor the middleware
// evaluates. A zero value means "authenticated, nothing else".
type Requirements struct {
	// Public skips authentication entirely.
	Public bool
	// Roles the caller must hold; all of them when RolesMatchAll is set,
	// otherwise any one suffices.
	Roles         []string
	RolesMatchAll bool
	// Permissions the caller must hold, same all/any semantics.
	Permissions         []RequiredPermission
	PermissionsMatchAll bool
	// Module gates the endpoint on a subscription module when non-empty.
	Module license.ModuleCode
	// AllowGracePeriod permits read-only access while a suspended
	// subscription is inside its grace window. Endpoints that must not be
	// served on a suspended plan leave it false.
	AllowGracePeriod bool
}

// Registry maps route identity (method + chi route pattern) to its
// requirements. Routes that never register are treated as
// authenticated-only, which fails closed relative to forgetting a role
// check.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]Requirements
}

func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]Requirements)}
}

func routeKey(method, pattern string) string {
	return method + " " + pattern
}

func (r *Registry) Register(method, pattern string, req Requirements) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[routeKey(method, pattern)] = req
}

func (r *Registry) Lookup(method, pattern string) (Requirements, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.routes[routeKey(method, pattern)]
	return req, ok
}
