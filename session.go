package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	UserRole       Role           `json:"role,omitempty"`
	AuthProvider   Provider       `json:"provider,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetRole() Role {
	if s.UserRole == "" {
		return RoleGuest
	}
	return s.UserRole
}

func (s *SessionObject) GetProvider() Provider {
	return s.AuthProvider
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// IsAtLeast checks if the session's role is at least the minimum required role
func (s *SessionObject) IsAtLeast(minRole Role) bool {
	return RoleIsAtLeast(s.GetRole(), minRole)
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s role=%s provider=%s iss=%s iat=%s",
		s.UserID,
		s.UserRole,
		s.AuthProvider,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromAuthClaims creates a SessionObject from validated claims
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	session := &SessionObject{
		UserID:       claims.PrincipalID(),
		UserRole:     claims.Role(),
		AuthProvider: claims.Provider(),
		Data: map[string]any{
			"role":     claims.Role(),
			"provider": string(claims.Provider()),
		},
	}

	if jwtClaims, ok := claims.(*JWTClaims); ok {
		session.Issuer = jwtClaims.RegisteredClaims.Issuer
		if jwtClaims.RegisteredClaims.Audience != nil {
			session.Audience = append(session.Audience, jwtClaims.RegisteredClaims.Audience...)
		}
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()
	if !issuedAt.IsZero() {
		session.IssuedAt = &issuedAt
	}
	if !expiresAt.IsZero() {
		session.ExpirationDate = &expiresAt
	}

	return session, nil
}
