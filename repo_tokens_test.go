package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRefreshToken(t *testing.T, repo RefreshTokens, principalID uuid.UUID, value string, ttl time.Duration) *RefreshTokenRecord {
	t.Helper()

	now := time.Now().UTC()
	record := &RefreshTokenRecord{
		Token:       value,
		PrincipalID: principalID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
	require.NoError(t, repo.Replace(context.Background(), record))
	return record
}

func TestRefreshTokensReplaceAndFind(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRefreshTokensRepository(db)
	ctx := context.Background()
	principalID := uuid.New()

	seedRefreshToken(t, repo, principalID, "value-one", time.Hour)

	found, err := repo.FindByValue(ctx, "value-one")
	require.NoError(t, err)
	assert.Equal(t, principalID, found.PrincipalID)

	byPrincipal, err := repo.FindByPrincipal(ctx, principalID)
	require.NoError(t, err)
	assert.Equal(t, "value-one", byPrincipal.Token)
}

func TestRefreshTokensReplaceKeepsOneRecordPerPrincipal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRefreshTokensRepository(db)
	ctx := context.Background()
	principalID := uuid.New()

	seedRefreshToken(t, repo, principalID, "first-login", time.Hour)
	seedRefreshToken(t, repo, principalID, "second-login", time.Hour)

	_, err := repo.FindByValue(ctx, "first-login")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	found, err := repo.FindByPrincipal(ctx, principalID)
	require.NoError(t, err)
	assert.Equal(t, "second-login", found.Token)

	count, err := db.NewSelect().Model((*RefreshTokenRecord)(nil)).
		Where("principal_id = ?", principalID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRefreshTokensFindUnknownValue(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRefreshTokensRepository(db)

	_, err := repo.FindByValue(context.Background(), "never-issued")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = repo.FindByPrincipal(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokensConsumeByValueIsSingleUse(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRefreshTokensRepository(db)
	ctx := context.Background()

	seedRefreshToken(t, repo, uuid.New(), "one-shot", time.Hour)

	consumed, err := repo.ConsumeByValue(ctx, "one-shot")
	require.NoError(t, err)
	assert.True(t, consumed)

	consumed, err = repo.ConsumeByValue(ctx, "one-shot")
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestRefreshTokensConcurrentConsumeHasOneWinner(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRefreshTokensRepository(db)
	ctx := context.Background()

	seedRefreshToken(t, repo, uuid.New(), "contended", time.Hour)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumed, err := repo.ConsumeByValue(ctx, "contended")
			assert.NoError(t, err)
			results <- consumed
		}()
	}

	wg.Wait()
	close(results)

	winners := 0
	for consumed := range results {
		if consumed {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestRefreshTokensDeleteByPrincipalIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRefreshTokensRepository(db)
	ctx := context.Background()
	principalID := uuid.New()

	seedRefreshToken(t, repo, principalID, "to-revoke", time.Hour)

	require.NoError(t, repo.DeleteByPrincipal(ctx, principalID))
	require.NoError(t, repo.DeleteByPrincipal(ctx, principalID))

	_, err := repo.FindByValue(ctx, "to-revoke")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokensPurgeExpired(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRefreshTokensRepository(db)
	ctx := context.Background()

	seedRefreshToken(t, repo, uuid.New(), "stale-a", -2*time.Hour)
	seedRefreshToken(t, repo, uuid.New(), "stale-b", -time.Hour)
	seedRefreshToken(t, repo, uuid.New(), "live", time.Hour)

	purged, err := repo.PurgeExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	_, err = repo.FindByValue(ctx, "stale-a")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = repo.FindByValue(ctx, "live")
	assert.NoError(t, err)
}
