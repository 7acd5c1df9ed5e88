package apiclient

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry reads the exp claim of a JWT access token without
// verifying the signature; verification is the backend's job. It returns the
// zero time for opaque or claimless tokens, which callers treat as
// "no client-side expiry knowledge" (refresh only when the backend rejects).
func AccessTokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// AccessTokenExpiringWithin reports whether the token is a JWT whose exp
// claim falls inside the given window from now.
func AccessTokenExpiringWithin(token string, window time.Duration) bool {
	exp := AccessTokenExpiry(token)
	if exp.IsZero() {
		return false
	}
	return time.Until(exp) <= window
}
