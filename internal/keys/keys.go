// Package keys loads the RSA public keys the verifier trusts. Keys come
// either from PEM files on disk or from a JWKS endpoint; in both cases the
// returned slice order is the rotation order tried during verification.
package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var ErrNotRSAPublicKey = errors.New("keys: PEM block is not an RSA public key")

// LoadPublicKeys reads and parses RSA public keys from PEM files. The order
// of paths is preserved so config decides which key is tried first.
func LoadPublicKeys(paths []string) ([]*rsa.PublicKey, error) {
	out := make([]*rsa.PublicKey, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("keys: read %s: %w", path, err)
		}
		key, err := ParsePublicKeyPEM(raw)
		if err != nil {
			return nil, fmt.Errorf("keys: parse %s: %w", path, err)
		}
		out = append(out, key)
	}
	return out, nil
}

// ParsePublicKeyPEM parses a single PEM-encoded RSA public key, accepting
// both PKIX ("PUBLIC KEY") and PKCS1 ("RSA PUBLIC KEY") blocks.
func ParsePublicKeyPEM(raw []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("keys: no PEM block found")
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, ErrNotRSAPublicKey
		}
		return key, nil
	default:
		return nil, fmt.Errorf("keys: unexpected PEM block type %q", block.Type)
	}
}
