package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetRole() Role
	GetProvider() Provider
	GetIssuer() string
	GetAudience() []string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, provider Provider, attrs map[string]any, requestedRole Role) (*TokenPair, error)
	LoginLocal(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	SessionFromToken(token string) (Session, error)
}

// AuthorizationGate decides whether credentials may be issued for an identity.
// It is consulted on every login and on every refresh-triggered re-issuance,
// but never on per-request access token validation.
type AuthorizationGate interface {
	AuthorizeLogin(ctx context.Context, identity *CanonicalIdentity, requestedRole Role) (*Principal, error)
	AuthorizePrincipal(ctx context.Context, principalID uuid.UUID) (*Principal, error)
}

// CredentialIssuer mints and rotates access/refresh token pairs.
type CredentialIssuer interface {
	Issue(ctx context.Context, principal *Principal) (*TokenPair, error)
	Rotate(ctx context.Context, refreshToken string) (*TokenPair, error)
	Revoke(ctx context.Context, principalID uuid.UUID) error
	RevokeByValue(ctx context.Context, refreshToken string) error
}

// TokenService signs and validates access tokens.
type TokenService interface {
	Generate(ctx context.Context, principal *Principal) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	TokenValidator
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

// SimpleConfig is a plain struct Config implementation for direct wiring.
type SimpleConfig struct {
	SigningKey      string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ContextKey      string
	TokenLookup     string
	AuthScheme      string
	Issuer          string
	Audience        []string
}

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c SimpleConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL == 0 {
		return 15 * time.Minute
	}
	return c.AccessTokenTTL
}

func (c SimpleConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL == 0 {
		return 14 * 24 * time.Hour
	}
	return c.RefreshTokenTTL
}

func (c SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c SimpleConfig) GetIssuer() string     { return c.Issuer }
func (c SimpleConfig) GetAudience() []string { return c.Audience }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
