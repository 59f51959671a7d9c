package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsWithTimes(iat, exp time.Time) *AccessClaims {
	return &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestIsExpiredAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		exp     time.Time
		expired bool
	}{
		{"well in the future", now.Add(time.Hour), false},
		{"just past expiry, inside skew", now.Add(-10 * time.Second), false},
		{"past expiry beyond skew", now.Add(-ClockSkew - 10*time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expired, err := IsExpiredAt(claimsWithTimes(now.Add(-time.Hour), tt.exp), now)
			require.NoError(t, err)
			assert.Equal(t, tt.expired, expired)
		})
	}
}

func TestIsExpired_NoExp(t *testing.T) {
	claims := &AccessClaims{}
	_, err := IsExpired(claims)
	assert.ErrorIs(t, err, ErrNoExpiry)
}

func TestExpirationTime(t *testing.T) {
	now := time.Now()
	exp := now.Add(42 * time.Minute)
	got, err := ExpirationTime(claimsWithTimes(now, exp))
	require.NoError(t, err)
	assert.WithinDuration(t, exp, got, time.Second)
}

func TestTimeUntilExpiration_SignedResult(t *testing.T) {
	now := time.Now()

	remaining, err := TimeUntilExpirationAt(claimsWithTimes(now, now.Add(time.Hour)), now)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, remaining.Round(time.Second))

	overdue, err := TimeUntilExpirationAt(claimsWithTimes(now.Add(-2*time.Hour), now.Add(-time.Hour)), now)
	require.NoError(t, err)
	assert.Negative(t, overdue)
}

func TestWillExpireWithinAt(t *testing.T) {
	now := time.Now()
	claims := claimsWithTimes(now, now.Add(10*time.Minute))

	soon, err := WillExpireWithinAt(claims, 15*time.Minute, now)
	require.NoError(t, err)
	assert.True(t, soon)

	later, err := WillExpireWithinAt(claims, 5*time.Minute, now)
	require.NoError(t, err)
	assert.False(t, later)
}

func TestAgeAt(t *testing.T) {
	now := time.Now()
	claims := claimsWithTimes(now.Add(-20*time.Minute), now.Add(time.Hour))

	age, err := AgeAt(claims, now)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, age.Round(time.Second))
}

func TestAge_NoIssuedAt(t *testing.T) {
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	_, err := Age(claims)
	assert.ErrorIs(t, err, ErrNoIssuedAt)
}
