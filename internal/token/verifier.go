package token

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// allowedAlgorithms is the fixed allow-list. RSA family only: accepting
// symmetric methods alongside asymmetric keys opens the door to
// algorithm-confusion forgery, so HS* is permanently excluded.
var allowedAlgorithms = []string{
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodRS384.Alg(),
	jwt.SigningMethodRS512.Alg(),
}

// ClockSkew is the tolerance applied when validating exp/nbf.
const ClockSkew = 30 * time.Second

type Verifier interface {
	// VerifyAccess verifies an access token against the key list in order.
	// expectedIssuer is compared exactly when non-empty.
	VerifyAccess(tokenString string, keys []*rsa.PublicKey, expectedIssuer string) (*AccessClaims, error)
	// VerifyRefresh verifies a refresh token against the key list in order.
	VerifyRefresh(tokenString string, keys []*rsa.PublicKey, expectedIssuer string) (*RefreshClaims, error)
	// DecodeUnverified decodes a token payload WITHOUT verifying its
	// signature. Never use the result for an authorization decision; it
	// exists for logging and debugging only.
	DecodeUnverified(tokenString string) (jwt.MapClaims, error)
}

// verifiableClaims is satisfied by both access and refresh claim shapes.
type verifiableClaims interface {
	jwt.Claims
	missingClaims() []string
}

type verifier struct {
	logger *zap.Logger
	parser *jwt.Parser
}

func NewVerifier(logger *zap.Logger) Verifier {
	return &verifier{
		logger: logger,
		parser: jwt.NewParser(
			jwt.WithValidMethods(allowedAlgorithms),
			jwt.WithLeeway(ClockSkew),
		),
	}
}

func (v *verifier) VerifyAccess(tokenString string, keys []*rsa.PublicKey, expectedIssuer string) (*AccessClaims, error) {
	claims, err := v.verify(tokenString, keys, expectedIssuer, func() verifiableClaims {
		return &AccessClaims{}
	})
	if err != nil {
		return nil, err
	}
	return claims.(*AccessClaims), nil
}

func (v *verifier) VerifyRefresh(tokenString string, keys []*rsa.PublicKey, expectedIssuer string) (*RefreshClaims, error) {
	claims, err := v.verify(tokenString, keys, expectedIssuer, func() verifiableClaims {
		return &RefreshClaims{}
	})
	if err != nil {
		return nil, err
	}
	return claims.(*RefreshClaims), nil
}

// verify implements the ordered multi-key loop. The ordering is the security
// contract:
//  1. the algorithm allow-list is checked from the unverified header before
//     any cryptographic work,
//  2. an expired token stops the loop (expiry is not retried across keys),
//  3. a token that verifies under some key but misses mandatory claims or
//     carries the wrong issuer stops the loop (another key must not mask a
//     tampered payload),
//  4. only a pure signature mismatch falls through to the next key, which is
//     what makes zero-downtime key rotation work.
func (v *verifier) verify(tokenString string, keys []*rsa.PublicKey, expectedIssuer string, newClaims func() verifiableClaims) (verifiableClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, newVerificationError(CodeMalformedToken, errors.New("empty token"))
	}
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	alg, err := declaredAlgorithm(tokenString)
	if err != nil {
		return nil, newVerificationError(CodeMalformedToken, err)
	}
	if !algorithmAllowed(alg) {
		v.logger.Warn("token declared disallowed algorithm", zap.String("alg", alg))
		return nil, newVerificationError(CodeAlgorithmMismatch, errors.New("algorithm "+alg+" is not permitted"))
	}

	var lastErr error
	for i, key := range keys {
		claims := newClaims()
		_, err := v.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				return nil, newVerificationError(CodeTokenExpired, err)
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				// rotation window: try the next key
				v.logger.Debug("signature mismatch, trying next key", zap.Int("key_index", i))
				lastErr = err
				continue
			default:
				return nil, newVerificationError(CodeMalformedToken, err)
			}
		}

		if m := claims.missingClaims(); len(m) > 0 {
			return nil, newVerificationError(CodeMissingClaims, errors.New("missing claims: "+strings.Join(m, ", ")))
		}
		if expectedIssuer != "" {
			iss, _ := claims.GetIssuer()
			if iss != expectedIssuer {
				return nil, newVerificationError(CodeInvalidIssuer, errors.New("issuer "+iss+" does not match "+expectedIssuer))
			}
		}

		return claims, nil
	}

	return nil, newVerificationError(CodeInvalidSignature, lastErr)
}

func (v *verifier) DecodeUnverified(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, newVerificationError(CodeMalformedToken, err)
	}
	return claims, nil
}

// declaredAlgorithm reads the alg field from the (unverified) token header.
func declaredAlgorithm(tokenString string) (string, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return "", errors.New("token must have three segments")
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", err
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return "", err
	}
	if header.Alg == "" {
		return "", errors.New("token header has no alg")
	}
	return header.Alg, nil
}

func algorithmAllowed(alg string) bool {
	for _, allowed := range allowedAlgorithms {
		if alg == allowed {
			return true
		}
	}
	return false
}
