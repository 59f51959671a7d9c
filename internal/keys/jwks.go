package keys

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// JWKS is the JSON Web Key Set document served by the token issuer.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSClient fetches and caches the issuer's key set. Fetching retries with
// exponential backoff; a successful fetch is cached for the TTL.
type JWKSClient struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
	ttl        time.Duration

	mu       sync.RWMutex
	cached   []*rsa.PublicKey
	cachedAt time.Time
}

func NewJWKSClient(url string, ttl time.Duration, logger *zap.Logger) *JWKSClient {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWKSClient{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		ttl:        ttl,
	}
}

// Fetch returns the current key set, hitting the endpoint only when the
// cache has expired.
func (c *JWKSClient) Fetch(ctx context.Context) ([]*rsa.PublicKey, error) {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.cachedAt) < c.ttl {
		defer c.mu.RUnlock()
		return c.cached, nil
	}
	c.mu.RUnlock()

	var jwks JWKS
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("jwks fetch failed", zap.Error(err))
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("keys: jwks endpoint returned %d", resp.StatusCode)
			if resp.StatusCode >= 500 {
				c.logger.Warn("jwks fetch failed", zap.Int("status", resp.StatusCode))
				return retry.RetryableError(err)
			}
			return err
		}
		return json.NewDecoder(resp.Body).Decode(&jwks)
	})
	if err != nil {
		return nil, err
	}

	parsed := make([]*rsa.PublicKey, 0, len(jwks.Keys))
	for _, jwk := range jwks.Keys {
		if jwk.Kty != "RSA" {
			c.logger.Debug("skipping non-RSA jwk", zap.String("kid", jwk.Kid), zap.String("kty", jwk.Kty))
			continue
		}
		key, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			return nil, fmt.Errorf("keys: jwk %s: %w", jwk.Kid, err)
		}
		parsed = append(parsed, key)
	}

	c.mu.Lock()
	c.cached = parsed
	c.cachedAt = time.Now()
	c.mu.Unlock()

	c.logger.Info("jwks refreshed", zap.Int("keys", len(parsed)))
	return parsed, nil
}

// Invalidate drops the cache so the next Fetch hits the endpoint.
func (c *JWKSClient) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
	c.cachedAt = time.Time{}
}

func jwkToRSAPublicKey(jwk JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
