package keys

import (
	"context"
	"crypto/rsa"
)

// Provider yields the trusted verification keys in rotation order.
type Provider interface {
	Keys(ctx context.Context) ([]*rsa.PublicKey, error)
}

// StaticProvider serves a fixed key list, typically loaded from PEM files
// at startup.
type StaticProvider struct {
	keys []*rsa.PublicKey
}

func Static(keys ...*rsa.PublicKey) *StaticProvider {
	return &StaticProvider{keys: keys}
}

func (s *StaticProvider) Keys(ctx context.Context) ([]*rsa.PublicKey, error) {
	return s.keys, nil
}

// Keys makes JWKSClient a Provider.
func (c *JWKSClient) Keys(ctx context.Context) ([]*rsa.PublicKey, error) {
	return c.Fetch(ctx)
}
