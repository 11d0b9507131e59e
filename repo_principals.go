package auth

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ResetPrincipalPasswordSQL = `UPDATE "principals" AS "prn"
SET
	"password_hash" = ?
WHERE
	"prn"."deleted_at" IS NULL
AND (
	"prn"."id" = ?
) RETURNING *;`

// Principals is the repository for marketplace accounts. Status columns are
// written only through the lifecycle machines; callers outside this package
// should treat UpdateSellerStatus/UpdateUserStatus as internal plumbing.
type Principals interface {
	repository.Repository[*Principal]

	GetByUUID(ctx context.Context, id uuid.UUID) (*Principal, error)
	GetByProviderID(ctx context.Context, provider Provider, externalID string) (*Principal, error)
	GetByProviderIDTx(ctx context.Context, tx bun.IDB, provider Provider, externalID string) (*Principal, error)
	GetOrProvision(ctx context.Context, identity *CanonicalIdentity, role Role) (*Principal, error)
	GetOrProvisionTx(ctx context.Context, tx bun.IDB, identity *CanonicalIdentity, role Role) (*Principal, error)

	UpdateSellerStatus(ctx context.Context, id uuid.UUID, status SellerStatus, reason RejectionReason) (*Principal, error)
	UpdateUserStatus(ctx context.Context, id uuid.UUID, status UserStatus, withdrawnAt *time.Time) (*Principal, error)

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	TrackSuccessfulLogin(ctx context.Context, principal *Principal) error
}

type principals struct {
	repository.Repository[*Principal]
	db *bun.DB
}

var (
	_ Principals                        = (*principals)(nil)
	_ repository.Repository[*Principal] = (*principals)(nil)
)

func NewPrincipalsRepository(db *bun.DB) Principals {
	repo := repository.NewRepository[*Principal](db, repository.ModelHandlers[*Principal]{
		NewRecord: func() *Principal { return &Principal{} },
		GetID: func(p *Principal) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Principal, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "external_id"
		},
	})

	return &principals{
		Repository: repo,
		db:         db,
	}
}

func (a *principals) GetByUUID(ctx context.Context, id uuid.UUID) (*Principal, error) {
	return a.reload(ctx, id)
}

func (a *principals) GetByProviderID(ctx context.Context, provider Provider, externalID string) (*Principal, error) {
	return a.GetByProviderIDTx(ctx, a.db, provider, externalID)
}

func (a *principals) GetByProviderIDTx(ctx context.Context, tx bun.IDB, provider Provider, externalID string) (*Principal, error) {
	record := &Principal{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.provider = ? AND ?TableAlias.external_id = ?", string(provider), externalID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, withMeta(ErrIdentityNotFound, map[string]any{
				"provider": string(provider),
			})
		}
		return nil, err
	}

	record.EnsureStatus()
	return record, nil
}

func (a *principals) GetOrProvision(ctx context.Context, identity *CanonicalIdentity, role Role) (*Principal, error) {
	return a.GetOrProvisionTx(ctx, a.db, identity, role)
}

// GetOrProvisionTx joins a canonical identity to its principal, creating one
// on first login. The id is derived deterministically from provider+subject so
// concurrent first logins converge on the same row.
func (a *principals) GetOrProvisionTx(ctx context.Context, tx bun.IDB, identity *CanonicalIdentity, role Role) (*Principal, error) {
	if identity == nil {
		return nil, ErrUnableToParseData
	}

	existing, err := a.GetByProviderIDTx(ctx, tx, identity.Provider, identity.ExternalID)
	if err == nil {
		return existing, nil
	}
	if !isIdentityNotFound(err) {
		return nil, err
	}

	if role == "" {
		role = RoleUser
	}

	record := &Principal{
		Role:         role,
		Provider:     identity.Provider,
		ExternalID:   identity.ExternalID,
		DisplayName:  identity.DisplayName,
		Email:        identity.Email,
		AvatarURL:    identity.AvatarURL,
		Status:       UserStatusNormal,
		PasswordHash: RandomPasswordHash(),
	}

	if id, err := hashid.NewUUID(fmt.Sprintf("%s:%s", identity.Provider, identity.ExternalID)); err == nil {
		record.ID = id
	}

	return a.CreateTx(ctx, tx, record)
}

func (a *principals) UpdateSellerStatus(ctx context.Context, id uuid.UUID, status SellerStatus, reason RejectionReason) (*Principal, error) {
	record := &Principal{
		ID:              id,
		SellerStatus:    status,
		RejectionReason: reason,
	}

	q := a.db.NewUpdate().
		Model(record).
		Column("seller_status", "updated_at").
		Where("?TableAlias.id = ?", id)

	if status == SellerStatusRejected {
		q = q.Column("rejection_reason")
	}

	now := time.Now()
	record.UpdatedAt = &now

	if _, err := q.Exec(ctx); err != nil {
		return nil, err
	}

	return a.reload(ctx, id)
}

func (a *principals) UpdateUserStatus(ctx context.Context, id uuid.UUID, status UserStatus, withdrawnAt *time.Time) (*Principal, error) {
	now := time.Now()
	record := &Principal{
		ID:          id,
		Status:      status,
		WithdrawnAt: withdrawnAt,
		UpdatedAt:   &now,
	}

	_, err := a.db.NewUpdate().
		Model(record).
		Column("user_status", "withdrawn_at", "updated_at").
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return a.reload(ctx, id)
}

func (a *principals) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *principals) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, ResetPrincipalPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *principals) TrackSuccessfulLogin(ctx context.Context, principal *Principal) error {
	if principal == nil {
		return nil
	}

	now := time.Now()
	principal.LoggedInAt = &now

	_, err := a.db.NewUpdate().
		Model(principal).
		Column("loggedin_at").
		Where("?TableAlias.id = ?", principal.ID).
		Exec(ctx)

	return err
}

func (a *principals) reload(ctx context.Context, id uuid.UUID) (*Principal, error) {
	record := &Principal{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	record.EnsureStatus()
	return record, nil
}

func isIdentityNotFound(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrIdentityNotFound)
}
