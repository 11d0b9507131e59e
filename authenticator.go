package auth

import (
	"context"
	"time"
)

// PrincipalProvisioner is the slice of the principals repository the
// authenticator needs: lazy provisioning of first-time social identities and
// login bookkeeping.
type PrincipalProvisioner interface {
	GetOrProvision(ctx context.Context, identity *CanonicalIdentity, role Role) (*Principal, error)
	TrackSuccessfulLogin(ctx context.Context, principal *Principal) error
}

// Auther composes the identity resolver, authorization gate, and credential
// issuer into the public authentication operations.
type Auther struct {
	principals     PrincipalProvisioner
	gate           AuthorizationGate
	issuer         CredentialIssuer
	tokenService   TokenService
	tokenValidator TokenValidator
	activitySink   ActivitySink
	logger         Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(principals PrincipalProvisioner, gate AuthorizationGate, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetAccessTokenTTL(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		principals:   principals,
		gate:         gate,
		tokenService: tokenService,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithCredentialIssuer wires the issuer that mints and rotates token pairs.
// Mandatory before Login, LoginLocal, Refresh, or Logout are called.
func (s *Auther) WithCredentialIssuer(issuer CredentialIssuer) *Auther {
	s.issuer = issuer
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenService replaces the token service built from Config.
func (s *Auther) WithTokenService(service TokenService) *Auther {
	if service != nil {
		s.tokenService = service
	}
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login authenticates a social (or pre-verified) provider payload and issues
// a token pair. First-time social identities are provisioned in place with
// the requested role; the authorization checks then run against the stored
// snapshot, so a fresh seller applicant comes back ErrAccountNotApproved.
func (s *Auther) Login(ctx context.Context, provider Provider, attrs map[string]any, requestedRole Role) (*TokenPair, error) {
	identity, err := ResolveIdentity(provider, attrs)
	if err != nil {
		s.logger.Error("Login failed to resolve identity", "provider", provider, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"provider": string(provider),
			"error":    err.Error(),
		})
		return nil, err
	}

	principal, err := s.gate.AuthorizeLogin(ctx, identity, requestedRole)
	if isIdentityNotFound(err) && provider.IsSocial() {
		principal, err = s.provisionAndAuthorize(ctx, identity, requestedRole)
	}
	if err != nil {
		s.logger.Warn("Login rejected", "provider", provider, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"provider":    string(provider),
			"external_id": identity.ExternalID,
			"error":       err.Error(),
		})
		return nil, err
	}

	return s.finishLogin(ctx, principal)
}

// LoginLocal authenticates an email/password pair. Unknown email and wrong
// password both come back as ErrIdentityNotFound so responses do not reveal
// which accounts exist.
func (s *Auther) LoginLocal(ctx context.Context, email, password string) (*TokenPair, error) {
	identity, err := ResolveIdentity(ProviderLocal, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}

	principal, err := s.gate.AuthorizeLogin(ctx, identity, RoleUser)
	if err != nil {
		s.logger.Warn("LoginLocal rejected", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"provider": string(ProviderLocal),
			"error":    err.Error(),
		})
		return nil, err
	}

	if err := ComparePasswordAndHash(password, principal.PasswordHash); err != nil {
		s.logger.Warn("LoginLocal password mismatch", "principal", principal.ID)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromPrincipal(principal), principal.ID.String(), map[string]any{
			"provider": string(ProviderLocal),
			"error":    ErrIdentityNotFound.Error(),
		})
		return nil, ErrIdentityNotFound
	}

	return s.finishLogin(ctx, principal)
}

// Refresh rotates a refresh token into a new pair. The rotation re-runs the
// authorization gate and consumes the old token exactly once.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return s.issuer.Rotate(ctx, refreshToken)
}

// Logout revokes the refresh token's live record. Unknown tokens are a no-op
// so repeated logouts succeed.
func (s *Auther) Logout(ctx context.Context, refreshToken string) error {
	return s.issuer.RevokeByValue(ctx, refreshToken)
}

func (s *Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

func (s *Auther) provisionAndAuthorize(ctx context.Context, identity *CanonicalIdentity, requestedRole Role) (*Principal, error) {
	role := requestedRole
	if role == "" || !IsValidRole(role) {
		role = RoleUser
	}

	principal, err := s.principals.GetOrProvision(ctx, identity, role)
	if err != nil {
		return nil, err
	}

	return s.gate.AuthorizePrincipal(ctx, principal.ID)
}

func (s *Auther) finishLogin(ctx context.Context, principal *Principal) (*TokenPair, error) {
	pair, err := s.issuer.Issue(ctx, principal)
	if err != nil {
		s.logger.Error("Login failed to issue credentials", "principal", principal.ID, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromPrincipal(principal), principal.ID.String(), map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	if err := s.principals.TrackSuccessfulLogin(ctx, principal); err != nil {
		// bookkeeping only, the credentials are already good
		s.logger.Warn("Login failed to track login timestamp", "principal", principal.ID, "error", err)
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromPrincipal(principal), principal.ID.String(), map[string]any{
		"provider": string(principal.Provider),
		"role":     string(principal.Role),
	})

	return pair, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, principalID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:   eventType,
		Actor:       actor,
		PrincipalID: principalID,
		Metadata:    metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromPrincipal(principal *Principal) ActorRef {
	if principal == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   principal.ID.String(),
		Type: string(principal.Role),
	}
}
