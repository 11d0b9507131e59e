package auth

import (
	"context"

	"github.com/google/uuid"
)

// PrincipalSource is the read surface the gate needs from the principals
// repository.
type PrincipalSource interface {
	GetByUUID(ctx context.Context, id uuid.UUID) (*Principal, error)
	GetByProviderID(ctx context.Context, provider Provider, externalID string) (*Principal, error)
}

// PolicySource is the read surface the gate needs from the provider policies.
type PolicySource interface {
	Get(ctx context.Context, provider Provider) (*ProviderPolicy, error)
}

// Gate is the default AuthorizationGate. It composes the identity resolver's
// output with the account lifecycle state to decide whether credential
// issuance may proceed. It never runs on plain access token validation.
type Gate struct {
	principals PrincipalSource
	policies   PolicySource
	logger     Logger
}

var _ AuthorizationGate = (*Gate)(nil)

// NewAuthorizationGate returns a new Gate
func NewAuthorizationGate(principals PrincipalSource, policies PolicySource) *Gate {
	return &Gate{
		principals: principals,
		policies:   policies,
		logger:     defLogger{},
	}
}

func (g *Gate) WithLogger(logger Logger) *Gate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// AuthorizeLogin validates a login attempt. The provider policy check runs
// first and short-circuits before any principal lookup side effects.
func (g *Gate) AuthorizeLogin(ctx context.Context, identity *CanonicalIdentity, requestedRole Role) (*Principal, error) {
	if identity == nil {
		return nil, ErrIdentityNotFound
	}

	if err := g.checkProviderPolicy(ctx, identity.Provider); err != nil {
		return nil, err
	}

	principal, err := g.principals.GetByProviderID(ctx, identity.Provider, identity.ExternalID)
	if err != nil {
		return nil, err
	}

	return g.checkPrincipal(principal, requestedRole)
}

// AuthorizePrincipal re-runs the login checks against a known principal. The
// refresh flow uses this to catch role or status changes since original
// issuance.
func (g *Gate) AuthorizePrincipal(ctx context.Context, principalID uuid.UUID) (*Principal, error) {
	principal, err := g.principals.GetByUUID(ctx, principalID)
	if err != nil {
		return nil, err
	}

	if err := g.checkProviderPolicy(ctx, principal.Provider); err != nil {
		return nil, err
	}

	return g.checkPrincipal(principal, principal.Role)
}

func (g *Gate) checkProviderPolicy(ctx context.Context, provider Provider) error {
	if !provider.IsValid() {
		return withMeta(ErrUnsupportedProvider, map[string]any{
			"provider": string(provider),
		})
	}

	if !provider.IsSocial() {
		return nil
	}

	policy, err := g.policies.Get(ctx, provider)
	if err != nil {
		return err
	}

	if !policy.Active {
		g.logger.Info("login rejected, provider disabled", "provider", provider)
		return withMeta(ErrProviderDisabled, map[string]any{
			"provider": string(provider),
		})
	}

	return nil
}

func (g *Gate) checkPrincipal(principal *Principal, requestedRole Role) (*Principal, error) {
	principal.EnsureStatus()

	if principal.IsWithdrawn() {
		return nil, withMeta(ErrAccountWithdrawn, map[string]any{
			"principal_id": principal.ID.String(),
		})
	}

	// The issued access token embeds the stored role, so a seller account
	// needs approval even when the caller asked for a lesser role.
	if (requestedRole == RoleSeller || principal.Role == RoleSeller) && !principal.IsSellerApproved() {
		// carry the pending/rejected distinction for client messaging
		meta := map[string]any{
			"seller_status": string(principal.SellerStatus),
		}
		if principal.SellerStatus == SellerStatusRejected && principal.RejectionReason != "" {
			meta["rejection_reason"] = string(principal.RejectionReason)
		}
		return nil, withMeta(ErrAccountNotApproved, meta)
	}

	return principal, nil
}
