package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens persists refresh token records and enforces the single-use
// rotation contract. Each principal holds at most one live record; the unique
// constraint on principal_id backs that invariant at the storage level.
type RefreshTokens interface {
	FindByValue(ctx context.Context, value string) (*RefreshTokenRecord, error)
	FindByPrincipal(ctx context.Context, principalID uuid.UUID) (*RefreshTokenRecord, error)

	// Replace removes any prior record for the principal and inserts the new
	// one in a single transaction.
	Replace(ctx context.Context, record *RefreshTokenRecord) error

	// ConsumeByValue conditionally deletes the record with the given value and
	// reports whether this caller observed it. Two concurrent rotations of the
	// same token see exactly one true result between them.
	ConsumeByValue(ctx context.Context, value string) (bool, error)

	// DeleteByPrincipal revokes the principal's live record. Idempotent.
	DeleteByPrincipal(ctx context.Context, principalID uuid.UUID) error

	// PurgeExpired removes records past their lifetime. Housekeeping only;
	// correctness never depends on it running.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type refreshTokens struct {
	db *bun.DB
}

var _ RefreshTokens = (*refreshTokens)(nil)

func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	return &refreshTokens{db: db}
}

func (r *refreshTokens) FindByValue(ctx context.Context, value string) (*RefreshTokenRecord, error) {
	record := &RefreshTokenRecord{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return record, nil
}

func (r *refreshTokens) FindByPrincipal(ctx context.Context, principalID uuid.UUID) (*RefreshTokenRecord, error) {
	record := &RefreshTokenRecord{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.principal_id = ?", principalID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return record, nil
}

func (r *refreshTokens) Replace(ctx context.Context, record *RefreshTokenRecord) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*RefreshTokenRecord)(nil)).
			Where("principal_id = ?", record.PrincipalID).
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
}

func (r *refreshTokens) ConsumeByValue(ctx context.Context, value string) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*RefreshTokenRecord)(nil)).
		Where("token = ?", value).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *refreshTokens) DeleteByPrincipal(ctx context.Context, principalID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*RefreshTokenRecord)(nil)).
		Where("principal_id = ?", principalID).
		Exec(ctx)
	return err
}

func (r *refreshTokens) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*RefreshTokenRecord)(nil)).
		Where("expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
