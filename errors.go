package auth

import (
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeUnsupportedProvider = "UNSUPPORTED_PROVIDER"
	TextCodeProviderDisabled    = "PROVIDER_DISABLED"
	TextCodeAccountWithdrawn    = "ACCOUNT_WITHDRAWN"
	TextCodeSellerNotApproved   = "SELLER_NOT_APPROVED"
	TextCodeInvalidTransition   = "INVALID_STATE_TRANSITION"
	TextCodeTerminalState       = "TERMINAL_STATE"
	TextCodeTokenInvalid        = "TOKEN_INVALID_OR_EXPIRED"
	TextCodeTokenRevoked        = "TOKEN_REVOKED"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeBadSignature        = "TOKEN_SIGNATURE_INVALID"
	TextCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	TextCodeImmutableClaim      = "IMMUTABLE_CLAIM_MUTATION"
	TextCodeInsufficientRole    = "INSUFFICIENT_ROLE"
)

// ErrUnsupportedProvider is returned by the identity resolver for any provider
// tag outside the supported set.
var ErrUnsupportedProvider = errors.New("unsupported identity provider", errors.CategoryBadInput).
	WithTextCode(TextCodeUnsupportedProvider).
	WithCode(errors.CodeBadRequest)

// ErrProviderDisabled is returned when an admin has switched the provider off.
var ErrProviderDisabled = errors.New("identity provider is disabled", errors.CategoryAuth).
	WithTextCode(TextCodeProviderDisabled).
	WithCode(errors.CodeForbidden)

// ErrAccountWithdrawn is returned when the owning account is closed.
var ErrAccountWithdrawn = errors.New("account has been withdrawn", errors.CategoryAuth).
	WithTextCode(TextCodeAccountWithdrawn).
	WithCode(errors.CodeForbidden)

// ErrAccountNotApproved is returned when a seller credential is requested for a
// principal whose application is pending or rejected. Metadata carries the
// current seller status for client messaging.
var ErrAccountNotApproved = errors.New("seller account is not approved", errors.CategoryAuth).
	WithTextCode(TextCodeSellerNotApproved).
	WithCode(errors.CodeForbidden)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = errors.New("invalid account state transition", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(errors.CodeBadRequest)

// ErrTerminalState is returned when attempting to move away from a terminal
// status (withdrawn accounts, decided seller applications).
var ErrTerminalState = errors.New("account state is terminal", errors.CategoryConflict).
	WithTextCode(TextCodeTerminalState).
	WithCode(errors.CodeConflict)

// ErrTokenInvalid is returned for refresh tokens that are unknown or expired.
var ErrTokenInvalid = errors.New("refresh token is invalid or expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenRevoked is returned when a refresh token has already been rotated or
// revoked. Clients should force a fresh login; this is never retryable.
var ErrTokenRevoked = errors.New("refresh token has been revoked", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for access tokens past their exp claim.
var ErrTokenExpired = errors.New("access token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for structurally invalid access tokens.
var ErrTokenMalformed = errors.New("access token is malformed", errors.CategoryBadInput).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeBadRequest)

// ErrInvalidSignature is returned when the access token signature does not verify.
var ErrInvalidSignature = errors.New("access token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeBadSignature).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrInsufficientRole is returned when a valid session lacks the role a
// route demands.
var ErrInsufficientRole = errors.New("insufficient role", errors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(errors.CodeForbidden)

// ErrImmutableClaimMutation is returned when a claims decorator touches a
// registered or identity claim.
var ErrImmutableClaimMutation = errors.New("immutable claim mutated", errors.CategoryInternal).
	WithTextCode(TextCodeImmutableClaim).
	WithCode(errors.CodeInternal)

// ErrNoEmptyString guards password hashing input
var ErrNoEmptyString = stderrors.New("password can not be an empty string")

// ErrMismatchedHashAndPassword is the bcrypt mismatch error surfaced to callers
var ErrMismatchedHashAndPassword = stderrors.New("mismatched password and hash")

// ErrUnableToDecodeSession unable to decode JWT claims into a session
var ErrUnableToDecodeSession = stderrors.New("unable to decode session")

// ErrUnableToParseData parse error
var ErrUnableToParseData = stderrors.New("unable to parse data")

// withMeta clones a sentinel before attaching metadata so the shared error
// values stay immutable. The sentinel is kept as Source so errors.Is still
// matches.
func withMeta(base *errors.Error, metadata map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	clone.Source = base
	return clone.WithMetadata(metadata)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
