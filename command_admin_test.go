package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerTestSeller(t *testing.T, repo RepositoryManager, email string) *Principal {
	t.Helper()

	handler := NewRegisterPrincipalHandler(repo)
	err := handler.Execute(context.Background(), RegisterPrincipalMessage{
		DisplayName: "Test Seller",
		Email:       email,
		Password:    "seller-password-1",
		Role:        RoleSeller,
	})
	require.NoError(t, err)

	principal, err := repo.Principals().GetByProviderID(context.Background(), ProviderLocal, email)
	require.NoError(t, err)
	return principal
}

func TestRegisterPrincipalCreatesLocalAccount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)
	ctx := context.Background()

	handler := NewRegisterPrincipalHandler(repo)
	err := handler.Execute(ctx, RegisterPrincipalMessage{
		DisplayName: "Buyer",
		Email:       "buyer@example.com",
		Password:    "buyer-password-1",
	})
	require.NoError(t, err)

	principal, err := repo.Principals().GetByProviderID(ctx, ProviderLocal, "buyer@example.com")
	require.NoError(t, err)

	assert.Equal(t, RoleUser, principal.Role)
	assert.Equal(t, ProviderLocal, principal.Provider)
	assert.Equal(t, UserStatusNormal, principal.Status)
	assert.Empty(t, principal.SellerStatus)
	assert.NoError(t, ComparePasswordAndHash("buyer-password-1", principal.PasswordHash))
}

func TestRegisterPrincipalSellerStartsPending(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)

	principal := registerTestSeller(t, repo, "seller@example.com")

	assert.Equal(t, RoleSeller, principal.Role)
	assert.Equal(t, SellerStatusPending, principal.SellerStatus)
}

func TestRegisterPrincipalDuplicateEmailConflicts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)
	ctx := context.Background()

	handler := NewRegisterPrincipalHandler(repo)
	msg := RegisterPrincipalMessage{
		Email:    "dupe@example.com",
		Password: "first-password-1",
	}
	require.NoError(t, handler.Execute(ctx, msg))

	err := handler.Execute(ctx, msg)
	require.Error(t, err)
}

func TestApproveSellerCommand(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)
	ctx := context.Background()

	principal := registerTestSeller(t, repo, "pending@example.com")

	sink := &captureSink{}
	lifecycle := NewSellerLifecycle(repo.Principals(), WithLifecycleActivitySink(sink))
	handler := NewApproveSellerHandler(repo, lifecycle)

	err := handler.Execute(ctx, ApproveSellerMessage{
		PrincipalID: principal.ID,
		ReviewerID:  "reviewer-1",
		Note:        "documents verified",
	})
	require.NoError(t, err)

	updated, err := repo.Principals().GetByUUID(ctx, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, SellerStatusApproved, updated.SellerStatus)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, ActivityEventSellerStatusChanged, event.EventType)
	assert.Equal(t, "reviewer-1", event.Actor.ID)
	assert.Equal(t, "documents verified", event.Metadata["note"])
}

func TestRejectSellerCommandRecordsReason(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)
	ctx := context.Background()

	principal := registerTestSeller(t, repo, "rejected@example.com")

	lifecycle := NewSellerLifecycle(repo.Principals())
	handler := NewRejectSellerHandler(repo, lifecycle)

	err := handler.Execute(ctx, RejectSellerMessage{
		PrincipalID: principal.ID,
		ReviewerID:  "reviewer-2",
		Reason:      RejectionIncompleteDocuments,
	})
	require.NoError(t, err)

	updated, err := repo.Principals().GetByUUID(ctx, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, SellerStatusRejected, updated.SellerStatus)
	assert.Equal(t, RejectionIncompleteDocuments, updated.RejectionReason)

	// the decision is terminal
	approve := NewApproveSellerHandler(repo, lifecycle)
	err = approve.Execute(ctx, ApproveSellerMessage{
		PrincipalID: principal.ID,
		ReviewerID:  "reviewer-2",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTerminalState)
}

func TestApproveSellerUnknownPrincipal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)

	lifecycle := NewSellerLifecycle(repo.Principals())
	handler := NewApproveSellerHandler(repo, lifecycle)

	err := handler.Execute(context.Background(), ApproveSellerMessage{
		PrincipalID: uuid.New(),
		ReviewerID:  "reviewer-1",
	})
	require.Error(t, err)
}

func TestSetProviderPolicyCommand(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)
	ctx := context.Background()

	sink := &captureSink{}
	handler := NewSetProviderPolicyHandler(repo).WithActivitySink(sink)

	err := handler.Execute(ctx, SetProviderPolicyMessage{
		Provider: ProviderKakao,
		Active:   false,
		ActorID:  "ops-1",
	})
	require.NoError(t, err)

	policy, err := repo.ProviderPolicies().Get(ctx, ProviderKakao)
	require.NoError(t, err)
	assert.False(t, policy.Active)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, ActivityEventProviderPolicyChanged, event.EventType)
	assert.Equal(t, "kakao", event.Metadata["provider"])
	assert.Equal(t, false, event.Metadata["active"])
}

func TestSetProviderPolicyRejectsLocal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepositoryManager(db)

	handler := NewSetProviderPolicyHandler(repo)
	err := handler.Execute(context.Background(), SetProviderPolicyMessage{
		Provider: ProviderLocal,
		Active:   false,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}
