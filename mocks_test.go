package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	auth "github.com/plazamarket/go-auth"
	"github.com/stretchr/testify/mock"
)

// MockPrincipalStatusStore implements auth.PrincipalStatusStore
type MockPrincipalStatusStore struct {
	mock.Mock
}

func (m *MockPrincipalStatusStore) UpdateSellerStatus(ctx context.Context, id uuid.UUID, status auth.SellerStatus, reason auth.RejectionReason) (*auth.Principal, error) {
	args := m.Called(ctx, id, status, reason)
	if p, ok := args.Get(0).(*auth.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalStatusStore) UpdateUserStatus(ctx context.Context, id uuid.UUID, status auth.UserStatus, withdrawnAt *time.Time) (*auth.Principal, error) {
	args := m.Called(ctx, id, status, withdrawnAt)
	if p, ok := args.Get(0).(*auth.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPrincipalSource implements auth.PrincipalSource
type MockPrincipalSource struct {
	mock.Mock
}

func (m *MockPrincipalSource) GetByUUID(ctx context.Context, id uuid.UUID) (*auth.Principal, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*auth.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalSource) GetByProviderID(ctx context.Context, provider auth.Provider, externalID string) (*auth.Principal, error) {
	args := m.Called(ctx, provider, externalID)
	if p, ok := args.Get(0).(*auth.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPolicySource implements auth.PolicySource
type MockPolicySource struct {
	mock.Mock
}

func (m *MockPolicySource) Get(ctx context.Context, provider auth.Provider) (*auth.ProviderPolicy, error) {
	args := m.Called(ctx, provider)
	if p, ok := args.Get(0).(*auth.ProviderPolicy); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRefreshTokens implements auth.RefreshTokens
type MockRefreshTokens struct {
	mock.Mock
}

func (m *MockRefreshTokens) FindByValue(ctx context.Context, value string) (*auth.RefreshTokenRecord, error) {
	args := m.Called(ctx, value)
	if r, ok := args.Get(0).(*auth.RefreshTokenRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshTokens) FindByPrincipal(ctx context.Context, principalID uuid.UUID) (*auth.RefreshTokenRecord, error) {
	args := m.Called(ctx, principalID)
	if r, ok := args.Get(0).(*auth.RefreshTokenRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshTokens) Replace(ctx context.Context, record *auth.RefreshTokenRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRefreshTokens) ConsumeByValue(ctx context.Context, value string) (bool, error) {
	args := m.Called(ctx, value)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokens) DeleteByPrincipal(ctx context.Context, principalID uuid.UUID) error {
	args := m.Called(ctx, principalID)
	return args.Error(0)
}

func (m *MockRefreshTokens) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockPrincipalProvisioner implements auth.PrincipalProvisioner
type MockPrincipalProvisioner struct {
	mock.Mock
}

func (m *MockPrincipalProvisioner) GetOrProvision(ctx context.Context, identity *auth.CanonicalIdentity, role auth.Role) (*auth.Principal, error) {
	args := m.Called(ctx, identity, role)
	if p, ok := args.Get(0).(*auth.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalProvisioner) TrackSuccessfulLogin(ctx context.Context, principal *auth.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

// MockGate implements auth.AuthorizationGate
type MockGate struct {
	mock.Mock
}

func (m *MockGate) AuthorizeLogin(ctx context.Context, identity *auth.CanonicalIdentity, requestedRole auth.Role) (*auth.Principal, error) {
	args := m.Called(ctx, identity, requestedRole)
	if p, ok := args.Get(0).(*auth.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGate) AuthorizePrincipal(ctx context.Context, principalID uuid.UUID) (*auth.Principal, error) {
	args := m.Called(ctx, principalID)
	if p, ok := args.Get(0).(*auth.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCredentialIssuer implements auth.CredentialIssuer
type MockCredentialIssuer struct {
	mock.Mock
}

func (m *MockCredentialIssuer) Issue(ctx context.Context, principal *auth.Principal) (*auth.TokenPair, error) {
	args := m.Called(ctx, principal)
	if p, ok := args.Get(0).(*auth.TokenPair); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCredentialIssuer) Rotate(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if p, ok := args.Get(0).(*auth.TokenPair); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCredentialIssuer) Revoke(ctx context.Context, principalID uuid.UUID) error {
	args := m.Called(ctx, principalID)
	return args.Error(0)
}

func (m *MockCredentialIssuer) RevokeByValue(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

// recordingSink collects activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) EventTypes() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.EventType)
	}
	return types
}
