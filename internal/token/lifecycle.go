package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Lifecycle helpers are pure arithmetic over already-decoded claims. They do
// not verify anything; pair them with Verifier output.

var (
	ErrNoExpiry   = errors.New("token: claims carry no exp")
	ErrNoIssuedAt = errors.New("token: claims carry no iat")
)

// ExpirationTime returns the exp claim as a time.Time.
func ExpirationTime(claims jwt.Claims) (time.Time, error) {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// IsExpired reports whether the token expired more than ClockSkew ago.
func IsExpired(claims jwt.Claims) (bool, error) {
	return IsExpiredAt(claims, time.Now())
}

func IsExpiredAt(claims jwt.Claims, now time.Time) (bool, error) {
	exp, err := ExpirationTime(claims)
	if err != nil {
		return false, err
	}
	return exp.Before(now.Add(-ClockSkew)), nil
}

// TimeUntilExpiration returns the signed duration until exp; negative once
// the token has expired.
func TimeUntilExpiration(claims jwt.Claims) (time.Duration, error) {
	return TimeUntilExpirationAt(claims, time.Now())
}

func TimeUntilExpirationAt(claims jwt.Claims, now time.Time) (time.Duration, error) {
	exp, err := ExpirationTime(claims)
	if err != nil {
		return 0, err
	}
	return exp.Sub(now), nil
}

// WillExpireWithin reports whether the token expires inside the threshold.
func WillExpireWithin(claims jwt.Claims, threshold time.Duration) (bool, error) {
	return WillExpireWithinAt(claims, threshold, time.Now())
}

func WillExpireWithinAt(claims jwt.Claims, threshold time.Duration, now time.Time) (bool, error) {
	remaining, err := TimeUntilExpirationAt(claims, now)
	if err != nil {
		return false, err
	}
	return remaining <= threshold, nil
}

// Age returns the time elapsed since the iat claim.
func Age(claims jwt.Claims) (time.Duration, error) {
	return AgeAt(claims, time.Now())
}

func AgeAt(claims jwt.Claims, now time.Time) (time.Duration, error) {
	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return 0, ErrNoIssuedAt
	}
	return now.Sub(iat.Time), nil
}
