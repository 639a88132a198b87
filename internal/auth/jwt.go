// Package auth holds the portal's view of the bearer credential and the
// middleware that keeps anonymous visitors out of protected pages.
//
// WHO OWNS THE TOKEN?
// The SSC API issues and verifies the bearer token. The portal never holds the
// signing key, so it cannot validate a signature. What it CAN do is read the
// claims of a JWT without verifying them, which is enough to notice that a
// persisted token has already expired and skip a round trip that is certain
// to be rejected.
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: claims → {"sub":"userID","exp":1234567890}
//
// Tokens that are not JWTs are opaque to the portal and always go to the
// server for a verdict.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the "exp" claim of a JWT without verifying its signature.
// ok is false when the token is not a JWT or carries no expiry.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether token is a JWT whose expiry is at or before now.
// Opaque tokens and JWTs without "exp" are never considered expired here.
func Expired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && !now.Before(exp)
}
