package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kakaoTestIdentity(externalID string) *CanonicalIdentity {
	return &CanonicalIdentity{
		ExternalID:  externalID,
		Provider:    ProviderKakao,
		DisplayName: "kakao user",
		Email:       "kakao@example.com",
	}
}

func TestPrincipalsGetOrProvisionCreatesOnFirstLogin(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPrincipalsRepository(db)
	ctx := context.Background()

	created, err := repo.GetOrProvision(ctx, kakaoTestIdentity("kakao-1"), RoleUser)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, RoleUser, created.Role)
	assert.Equal(t, ProviderKakao, created.Provider)
	assert.Equal(t, "kakao-1", created.ExternalID)
	assert.Equal(t, UserStatusNormal, created.Status)
	assert.NotEmpty(t, created.PasswordHash)
}

func TestPrincipalsGetOrProvisionIsDeterministic(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPrincipalsRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrProvision(ctx, kakaoTestIdentity("kakao-2"), RoleUser)
	require.NoError(t, err)

	second, err := repo.GetOrProvision(ctx, kakaoTestIdentity("kakao-2"), RoleUser)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	count, err := db.NewSelect().Model((*Principal)(nil)).
		Where("external_id = ?", "kakao-2").
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrincipalsGetByProviderID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPrincipalsRepository(db)
	ctx := context.Background()

	created, err := repo.GetOrProvision(ctx, kakaoTestIdentity("kakao-3"), RoleUser)
	require.NoError(t, err)

	found, err := repo.GetByProviderID(ctx, ProviderKakao, "kakao-3")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByProviderID(ctx, ProviderKakao, "never-seen")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestPrincipalsGetByUUID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPrincipalsRepository(db)
	ctx := context.Background()

	created, err := repo.GetOrProvision(ctx, kakaoTestIdentity("kakao-4"), RoleUser)
	require.NoError(t, err)

	found, err := repo.GetByUUID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ExternalID, found.ExternalID)

	_, err = repo.GetByUUID(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestPrincipalsUpdateSellerStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPrincipalsRepository(db)
	ctx := context.Background()

	created, err := repo.GetOrProvision(ctx, kakaoTestIdentity("kakao-seller"), RoleSeller)
	require.NoError(t, err)

	pending, err := repo.UpdateSellerStatus(ctx, created.ID, SellerStatusPending, "")
	require.NoError(t, err)
	assert.Equal(t, SellerStatusPending, pending.SellerStatus)

	rejected, err := repo.UpdateSellerStatus(ctx, created.ID, SellerStatusRejected, RejectionIncompleteDocuments)
	require.NoError(t, err)
	assert.Equal(t, SellerStatusRejected, rejected.SellerStatus)
	assert.Equal(t, RejectionIncompleteDocuments, rejected.RejectionReason)
}

func TestPrincipalsUpdateUserStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPrincipalsRepository(db)
	ctx := context.Background()

	created, err := repo.GetOrProvision(ctx, kakaoTestIdentity("kakao-5"), RoleUser)
	require.NoError(t, err)

	dormant, err := repo.UpdateUserStatus(ctx, created.ID, UserStatusDormant, nil)
	require.NoError(t, err)
	assert.Equal(t, UserStatusDormant, dormant.Status)
	assert.Nil(t, dormant.WithdrawnAt)

	now := time.Now().UTC()
	withdrawn, err := repo.UpdateUserStatus(ctx, created.ID, UserStatusWithdrawn, &now)
	require.NoError(t, err)
	assert.Equal(t, UserStatusWithdrawn, withdrawn.Status)
	require.NotNil(t, withdrawn.WithdrawnAt)
	assert.WithinDuration(t, now, *withdrawn.WithdrawnAt, time.Second)
}

func TestPrincipalsTrackSuccessfulLogin(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPrincipalsRepository(db)
	ctx := context.Background()

	created, err := repo.GetOrProvision(ctx, kakaoTestIdentity("kakao-6"), RoleUser)
	require.NoError(t, err)
	require.Nil(t, created.LoggedInAt)

	require.NoError(t, repo.TrackSuccessfulLogin(ctx, created))

	reloaded, err := repo.GetByUUID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LoggedInAt)
	assert.WithinDuration(t, time.Now(), *reloaded.LoggedInAt, 5*time.Second)

	require.NoError(t, repo.TrackSuccessfulLogin(ctx, nil))
}
