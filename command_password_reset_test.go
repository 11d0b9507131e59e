package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localTestIdentity(email string) *CanonicalIdentity {
	return &CanonicalIdentity{
		ExternalID: email,
		Provider:   ProviderLocal,
		Email:      email,
	}
}

func TestInitializePasswordResetCreatesRequest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)
	ctx := context.Background()

	principal, err := repo.Principals().GetOrProvision(ctx, localTestIdentity("local@example.com"), RoleUser)
	require.NoError(t, err)

	sink := &captureSink{}
	handler := NewInitializePasswordResetHandler(repo).WithActivitySink(sink)

	var resp *InitializePasswordResetResponse
	err = handler.Execute(ctx, InitializePasswordResetMessage{
		Email: "local@example.com",
		OnResponse: func(r *InitializePasswordResetResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Reset)
	assert.Equal(t, ResetRequestedStatus, resp.Reset.Status)
	require.NotNil(t, resp.Reset.PrincipalID)
	assert.Equal(t, principal.ID, *resp.Reset.PrincipalID)

	require.Len(t, sink.events, 1)
	assert.Equal(t, ActivityEventPasswordResetRequest, sink.events[0].EventType)
}

func TestInitializePasswordResetUnknownEmailSucceedsSilently(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)

	sink := &captureSink{}
	handler := NewInitializePasswordResetHandler(repo).WithActivitySink(sink)

	var resp *InitializePasswordResetResponse
	err := handler.Execute(context.Background(), InitializePasswordResetMessage{
		Email: "nobody@example.com",
		OnResponse: func(r *InitializePasswordResetResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Reset)
	assert.Empty(t, sink.events)
}

func TestFinalizePasswordResetUpdatesHashAndConsumesRequest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)
	ctx := context.Background()

	principal, err := repo.Principals().GetOrProvision(ctx, localTestIdentity("reset@example.com"), RoleUser)
	require.NoError(t, err)

	var resp *InitializePasswordResetResponse
	require.NoError(t, NewInitializePasswordResetHandler(repo).Execute(ctx, InitializePasswordResetMessage{
		Email: "reset@example.com",
		OnResponse: func(r *InitializePasswordResetResponse) {
			resp = r
		},
	}))
	require.NotNil(t, resp.Reset)

	sink := &captureSink{}
	finalize := NewFinalizePasswordResetHandler(repo).WithActivitySink(sink)

	err = finalize.Execute(ctx, FinalizePasswordResetMessage{
		Session:  resp.Reset.ID.String(),
		Password: "brand-new-password",
	})
	require.NoError(t, err)

	reloaded, err := repo.Principals().GetByUUID(ctx, principal.ID)
	require.NoError(t, err)
	assert.NoError(t, ComparePasswordAndHash("brand-new-password", reloaded.PasswordHash))

	consumed, err := repo.PasswordResets().GetByID(ctx, resp.Reset.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ResetCompletedStatus, consumed.Status)
	require.NotNil(t, consumed.ResetAt)

	require.Len(t, sink.events, 1)
	assert.Equal(t, ActivityEventPasswordResetSuccess, sink.events[0].EventType)

	// second use of the same session fails
	err = finalize.Execute(ctx, FinalizePasswordResetMessage{
		Session:  resp.Reset.ID.String(),
		Password: "another-password",
	})
	require.Error(t, err)
}

func TestFinalizePasswordResetExpiredRequest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)
	ctx := context.Background()

	principal, err := repo.Principals().GetOrProvision(ctx, localTestIdentity("stale@example.com"), RoleUser)
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	reset := &PasswordReset{
		PrincipalID: &principal.ID,
		Email:       "stale@example.com",
		Status:      ResetRequestedStatus,
		CreatedAt:   &stale,
	}
	created, err := repo.PasswordResets().Create(ctx, reset)
	require.NoError(t, err)

	err = NewFinalizePasswordResetHandler(repo).Execute(ctx, FinalizePasswordResetMessage{
		Session:  created.ID.String(),
		Password: "whatever-password",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestFinalizePasswordResetUnknownSession(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)

	err := NewFinalizePasswordResetHandler(repo).Execute(context.Background(), FinalizePasswordResetMessage{
		Session:  "00000000-0000-0000-0000-000000000000",
		Password: "whatever-password",
	})
	require.Error(t, err)
}

// captureSink is the in-package ActivitySink test double.
type captureSink struct {
	events []ActivityEvent
}

func (s *captureSink) Record(_ context.Context, event ActivityEvent) error {
	s.events = append(s.events, event)
	return nil
}
