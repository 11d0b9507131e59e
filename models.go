package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the principal's global role
type Role = string

const (
	// RoleGuest is an unauthenticated or provisional principal
	RoleGuest Role = "guest"
	// RoleUser is a regular marketplace buyer
	RoleUser Role = "user"
	// RoleSeller is an approved merchant account
	RoleSeller Role = "seller"
	// RoleSuperAdmin is the platform operator role
	RoleSuperAdmin Role = "super_admin"
)

// Provider identifies the external identity provider a principal signed up with.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderNaver    Provider = "naver"
	ProviderKakao    Provider = "kakao"
	ProviderApple    Provider = "apple"
	ProviderLocal    Provider = "local"
)

// ParseProvider safely parses a string into a Provider.
func ParseProvider(s string) (Provider, bool) {
	p := Provider(s)
	return p, p.IsValid()
}

// IsValid checks the provider against the supported set.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderFacebook, ProviderNaver, ProviderKakao, ProviderApple, ProviderLocal:
		return true
	default:
		return false
	}
}

// IsSocial reports whether the provider is an external social provider.
// Local credentials are never gated by provider policies.
func (p Provider) IsSocial() bool {
	return p.IsValid() && p != ProviderLocal
}

// UserStatus is the account-level lifecycle state of a principal.
type UserStatus string

const (
	// UserStatusNormal is a fully usable account
	UserStatusNormal UserStatus = "normal"
	// UserStatusDormant is an inactive account that can be reactivated
	UserStatusDormant UserStatus = "dormant"
	// UserStatusWithdrawn is a closed account. Terminal.
	UserStatusWithdrawn UserStatus = "withdrawn"
)

// SellerStatus tracks the merchant-approval lifecycle. Empty means the
// principal never applied to sell.
type SellerStatus string

const (
	// SellerStatusPending means the application awaits review
	SellerStatusPending SellerStatus = "pending"
	// SellerStatusApproved permits seller-scoped credentials. Terminal.
	SellerStatusApproved SellerStatus = "approved"
	// SellerStatusRejected permanently blocks seller credentials. Terminal.
	SellerStatusRejected SellerStatus = "rejected"
)

// RejectionReason is the fixed taxonomy attached to seller rejections.
type RejectionReason string

const (
	RejectionIncompleteDocuments RejectionReason = "incomplete_documents"
	RejectionInvalidBusinessInfo RejectionReason = "invalid_business_info"
	RejectionPolicyViolation     RejectionReason = "policy_violation"
	RejectionDuplicateAccount    RejectionReason = "duplicate_account"
	RejectionOther               RejectionReason = "other"
)

// IsValid checks the reason against the rejection taxonomy.
func (r RejectionReason) IsValid() bool {
	switch r {
	case RejectionIncompleteDocuments, RejectionInvalidBusinessInfo,
		RejectionPolicyViolation, RejectionDuplicateAccount, RejectionOther:
		return true
	default:
		return false
	}
}

// CanonicalIdentity is the provider-agnostic profile produced by the identity
// resolver. It is derived fresh on every login attempt and never persisted.
// Optional fields are empty strings when the provider withholds them.
type CanonicalIdentity struct {
	ExternalID  string
	Provider    Provider
	DisplayName string
	Email       string
	AvatarURL   string
}

// Principal is the internal account a session is issued for.
type Principal struct {
	bun.BaseModel `bun:"table:principals,alias:prn"`

	ID              uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role            Role            `bun:"role,notnull" json:"role,omitempty"`
	Provider        Provider        `bun:"provider,notnull" json:"provider,omitempty"`
	ExternalID      string          `bun:"external_id,notnull" json:"external_id,omitempty"`
	DisplayName     string          `bun:"display_name" json:"display_name,omitempty"`
	Email           string          `bun:"email" json:"email,omitempty"`
	AvatarURL       string          `bun:"avatar_url" json:"avatar_url,omitempty"`
	PasswordHash    string          `bun:"password_hash" json:"-"`
	Status          UserStatus      `bun:"user_status,notnull" json:"user_status,omitempty"`
	SellerStatus    SellerStatus    `bun:"seller_status,nullzero" json:"seller_status,omitempty"`
	RejectionReason RejectionReason `bun:"rejection_reason,nullzero" json:"rejection_reason,omitempty"`
	LoggedInAt      *time.Time      `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	WithdrawnAt     *time.Time      `bun:"withdrawn_at,nullzero" json:"withdrawn_at,omitempty"`
	CreatedAt       *time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time      `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus defaults a zero-value status to normal so legacy rows keep working.
func (p *Principal) EnsureStatus() {
	if p.Status == "" {
		p.Status = UserStatusNormal
	}
}

// IsWithdrawn reports whether the account is closed.
func (p *Principal) IsWithdrawn() bool {
	return p.Status == UserStatusWithdrawn
}

// IsSellerApproved reports whether seller-scoped credentials may be issued.
func (p *Principal) IsSellerApproved() bool {
	return p.SellerStatus == SellerStatusApproved
}

const (
	// ResetRequestedStatus marks a reset awaiting completion
	ResetRequestedStatus = "requested"
	// ResetCompletedStatus marks a consumed reset
	ResetCompletedStatus = "completed"
)

// PasswordReset is a single-use, time-boxed password reset request for a
// local-credential principal.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_resets,alias:pwdr"`

	ID          uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PrincipalID *uuid.UUID `bun:"principal_id,notnull,type:uuid" json:"principal_id,omitempty"`
	Principal   *Principal `bun:"rel:has-one,join:principal_id=id" json:"principal,omitempty"`
	Status      string     `bun:"status,notnull" json:"status,omitempty"`
	Email       string     `bun:"email,notnull" json:"email,omitempty"`
	ResetAt     *time.Time `bun:"reset_at,nullzero" json:"reset_at,omitempty"`
	CreatedAt   *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt   *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// MarkPasswordResetCompleted builds the update record that consumes a reset.
func MarkPasswordResetCompleted(id uuid.UUID) *PasswordReset {
	now := time.Now()
	return &PasswordReset{
		ID:      id,
		Status:  ResetCompletedStatus,
		ResetAt: &now,
	}
}

// ProviderPolicy is the administrative enable/disable flag for a social provider.
// Consulted at login and refresh time only; issued access tokens are unaffected.
type ProviderPolicy struct {
	bun.BaseModel `bun:"table:provider_policies,alias:pp"`

	Provider  Provider   `bun:"provider,pk" json:"provider"`
	Active    bool       `bun:"active,notnull" json:"active"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// RefreshTokenRecord is the persisted half of a credential pair. The token
// value is opaque to clients; the principal column carries a unique constraint
// so each principal holds at most one live refresh token.
type RefreshTokenRecord struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rt"`

	Token       string    `bun:"token,pk" json:"-"`
	PrincipalID uuid.UUID `bun:"principal_id,notnull,unique,type:uuid" json:"principal_id"`
	IssuedAt    time.Time `bun:"issued_at,notnull" json:"issued_at"`
	ExpiresAt   time.Time `bun:"expires_at,notnull" json:"expires_at"`
}

// Expired reports whether the record is past its lifetime at the given instant.
func (r *RefreshTokenRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// TokenPair is what a successful login or rotation hands back to the client.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
