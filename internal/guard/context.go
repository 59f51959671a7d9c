package guard

import (
	"context"
	"net/http"

	"github.com/mehmetcc/denticore/internal/identity"
)

// Context is the minimal capability surface the core needs from a host
// framework: the inbound request and the authenticated user. Implement it
// once per transport; nothing below this package ever touches the transport
// request type directly.
type Context interface {
	Request() *http.Request
	User() *identity.CurrentUser
}

type ctxKey int

const userKey ctxKey = 0

// WithUser stores the authenticated user on the request context.
func WithUser(ctx context.Context, u *identity.CurrentUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext retrieves the authenticated user, or nil when the request
// never passed the guard.
func UserFromContext(ctx context.Context) *identity.CurrentUser {
	u, _ := ctx.Value(userKey).(*identity.CurrentUser)
	return u
}

// httpContext adapts a net/http request to the Context interface.
type httpContext struct {
	r *http.Request
}

func NewContext(r *http.Request) Context {
	return &httpContext{r: r}
}

func (c *httpContext) Request() *http.Request {
	return c.r
}

func (c *httpContext) User() *identity.CurrentUser {
	return UserFromContext(c.r.Context())
}
