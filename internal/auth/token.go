package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway treats a token about to expire as expired so a form
// submission does not fail half way.
const expiryLeeway = 30 * time.Second

// TokenInfo is what the session layer reads from a backend token. The
// signature is the backend's concern; only the claims are inspected.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// InspectToken reads the registered claims of a JWT without verifying it.
// ok is false when the token is not a JWT, which the backend is free to
// issue.
func InspectToken(raw string) (TokenInfo, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return TokenInfo{}, false
	}
	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, true
}

// Expired reports whether the token carries an expiry that has passed.
func Expired(raw string, now time.Time) bool {
	info, ok := InspectToken(raw)
	if !ok || info.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(expiryLeeway).Before(info.ExpiresAt)
}
