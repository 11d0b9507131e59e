package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// guardedClaimFields are the string claims decorators may never touch. The
// identity bindings (uid, role, provider) are guarded alongside the
// registered claims because authorization decisions key off them.
var guardedClaimFields = []struct {
	name string
	get  func(*JWTClaims) string
}{
	{"sub", func(c *JWTClaims) string { return c.RegisteredClaims.Subject }},
	{"iss", func(c *JWTClaims) string { return c.RegisteredClaims.Issuer }},
	{"uid", func(c *JWTClaims) string { return c.UID }},
	{"role", func(c *JWTClaims) string { return c.UserRole }},
	{"provider", func(c *JWTClaims) string { return c.AuthProvider }},
}

// immutableClaimsSnapshot freezes the protected surface of a claims value so
// it can be re-checked after decorators run.
type immutableClaimsSnapshot struct {
	fields   []string
	audience jwt.ClaimStrings
	issuedAt *time.Time
	expires  *time.Time
}

func captureImmutableClaims(claims *JWTClaims) immutableClaimsSnapshot {
	snap := immutableClaimsSnapshot{
		fields: make([]string, len(guardedClaimFields)),
	}
	for i, field := range guardedClaimFields {
		snap.fields[i] = field.get(claims)
	}
	if len(claims.RegisteredClaims.Audience) > 0 {
		snap.audience = append(jwt.ClaimStrings{}, claims.RegisteredClaims.Audience...)
	}
	snap.issuedAt = numericDateTime(claims.RegisteredClaims.IssuedAt)
	snap.expires = numericDateTime(claims.RegisteredClaims.ExpiresAt)
	return snap
}

func (snap immutableClaimsSnapshot) validate(claims *JWTClaims) error {
	for i, field := range guardedClaimFields {
		if field.get(claims) != snap.fields[i] {
			return immutableClaimViolation(field.name)
		}
	}

	if !audienceEqual(claims.RegisteredClaims.Audience, snap.audience) {
		return immutableClaimViolation("aud")
	}

	if !timesEqual(numericDateTime(claims.RegisteredClaims.IssuedAt), snap.issuedAt) {
		return immutableClaimViolation("iat")
	}

	if !timesEqual(numericDateTime(claims.RegisteredClaims.ExpiresAt), snap.expires) {
		return immutableClaimViolation("exp")
	}

	return nil
}

func numericDateTime(date *jwt.NumericDate) *time.Time {
	if date == nil {
		return nil
	}
	t := date.Time
	return &t
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func audienceEqual(a, b jwt.ClaimStrings) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func immutableClaimViolation(field string) error {
	clone := ErrImmutableClaimMutation.Clone()
	if clone == nil {
		return ErrImmutableClaimMutation
	}
	clone.Message = fmt.Sprintf("immutable claim mutated: %s", field)
	clone.Source = ErrImmutableClaimMutation
	return clone.WithMetadata(map[string]any{"claim": field})
}
