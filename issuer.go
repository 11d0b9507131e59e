package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const refreshTokenBytes = 32

// Issuer mints access/refresh token pairs and enforces single-use rotation.
// Every rotation re-runs the authorization gate against the token's owner, so
// a principal that has been withdrawn or demoted since login is cut off at
// the next refresh rather than at refresh expiry.
type Issuer struct {
	tokens       TokenService
	store        RefreshTokens
	gate         AuthorizationGate
	accessTTL    time.Duration
	refreshTTL   time.Duration
	clock        func() time.Time
	activitySink ActivitySink
	logger       Logger
}

var _ CredentialIssuer = (*Issuer)(nil)

// NewCredentialIssuer returns a new Issuer
func NewCredentialIssuer(tokens TokenService, store RefreshTokens, gate AuthorizationGate, opts Config) *Issuer {
	return &Issuer{
		tokens:       tokens,
		store:        store,
		gate:         gate,
		accessTTL:    opts.GetAccessTokenTTL(),
		refreshTTL:   opts.GetRefreshTokenTTL(),
		clock:        time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

func (i *Issuer) WithLogger(logger Logger) *Issuer {
	if logger != nil {
		i.logger = logger
	}
	return i
}

// WithActivitySink configures an ActivitySink for rotation/revocation events.
func (i *Issuer) WithActivitySink(sink ActivitySink) *Issuer {
	i.activitySink = normalizeActivitySink(sink)
	return i
}

// WithClock overrides the time source. Intended for tests.
func (i *Issuer) WithClock(clock func() time.Time) *Issuer {
	if clock != nil {
		i.clock = clock
	}
	return i
}

// Issue mints a fresh pair for an already authorized principal. The new
// refresh record replaces any prior record for the principal, so logging in
// from a second client invalidates the first client's refresh token.
func (i *Issuer) Issue(ctx context.Context, principal *Principal) (*TokenPair, error) {
	if principal == nil {
		return nil, errors.New("principal must not be nil", errors.CategoryInternal)
	}

	now := i.clock()

	accessToken, err := i.tokens.Generate(ctx, principal)
	if err != nil {
		i.logger.Error("Issue failed to sign access token", "error", err)
		return nil, err
	}

	refreshValue, err := NewRefreshTokenValue()
	if err != nil {
		i.logger.Error("Issue failed to generate refresh token", "error", err)
		return nil, err
	}

	record := &RefreshTokenRecord{
		Token:       refreshValue,
		PrincipalID: principal.ID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(i.refreshTTL),
	}

	if err := i.store.Replace(ctx, record); err != nil {
		i.logger.Error("Issue failed to persist refresh token", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshValue,
		AccessExpiresAt:  now.Add(i.accessTTL),
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}

// Rotate exchanges a refresh token for a new pair. The old token is consumed
// atomically: of two concurrent rotations with the same value, exactly one
// mints a new pair and the other gets ErrTokenRevoked.
func (i *Issuer) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrTokenInvalid
	}

	record, err := i.store.FindByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if record.Expired(i.clock()) {
		// Expired records stay until consumed or purged; consuming here keeps
		// the table from accumulating dead rows on the hot path.
		if _, err := i.store.ConsumeByValue(ctx, refreshToken); err != nil {
			i.logger.Warn("Rotate failed to consume expired token", "error", err)
		}
		return nil, ErrTokenInvalid
	}

	principal, err := i.gate.AuthorizePrincipal(ctx, record.PrincipalID)
	if err != nil {
		i.logger.Warn("Rotate blocked by authorization gate", "principal", record.PrincipalID, "error", err)
		return nil, err
	}

	consumed, err := i.store.ConsumeByValue(ctx, refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to consume refresh token")
	}

	if !consumed {
		// A concurrent rotation or revocation won the race.
		i.emitTokenEvent(ctx, ActivityEventTokenRevoked, principal.ID, map[string]any{
			"reason": "rotation_race",
		})
		return nil, ErrTokenRevoked
	}

	pair, err := i.Issue(ctx, principal)
	if err != nil {
		return nil, err
	}

	i.emitTokenEvent(ctx, ActivityEventTokenRotated, principal.ID, nil)

	return pair, nil
}

// Revoke deletes the principal's live refresh record. Idempotent: revoking a
// principal with no live record succeeds.
func (i *Issuer) Revoke(ctx context.Context, principalID uuid.UUID) error {
	if err := i.store.DeleteByPrincipal(ctx, principalID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke refresh token")
	}

	i.emitTokenEvent(ctx, ActivityEventTokenRevoked, principalID, nil)

	return nil
}

// RevokeByValue consumes a specific refresh token. Unknown values are a
// no-op so revoking twice succeeds.
func (i *Issuer) RevokeByValue(ctx context.Context, refreshToken string) error {
	record, err := i.store.FindByValue(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			return nil
		}
		return err
	}

	consumed, err := i.store.ConsumeByValue(ctx, refreshToken)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke refresh token")
	}

	if consumed {
		i.emitTokenEvent(ctx, ActivityEventTokenRevoked, record.PrincipalID, nil)
	}

	return nil
}

func (i *Issuer) emitTokenEvent(ctx context.Context, eventType ActivityEventType, principalID uuid.UUID, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	sink := normalizeActivitySink(i.activitySink)
	err := sink.Record(ctx, ActivityEvent{
		EventType:   eventType,
		Actor:       ActorRef{Type: "system"},
		PrincipalID: principalID.String(),
		Metadata:    metadata,
		OccurredAt:  i.clock(),
	})
	if err != nil {
		i.logger.Warn("activity sink record error: %v", err)
	}
}

// NewRefreshTokenValue returns an opaque 256-bit refresh token value. The
// value carries no structure; all state lives in the refresh_tokens table.
func NewRefreshTokenValue() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read token entropy")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func newTokenID() string {
	return uuid.NewString()
}
