package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ProviderPolicies stores the administrative enable/disable flags for social
// providers. A provider with no row reads as active; policies are a deny list
// written by admins, not an allow list every provider must register in.
type ProviderPolicies interface {
	Get(ctx context.Context, provider Provider) (*ProviderPolicy, error)
	Set(ctx context.Context, provider Provider, active bool) (*ProviderPolicy, error)
	List(ctx context.Context) ([]*ProviderPolicy, error)
}

type providerPolicies struct {
	db *bun.DB
}

var _ ProviderPolicies = (*providerPolicies)(nil)

func NewProviderPoliciesRepository(db *bun.DB) ProviderPolicies {
	return &providerPolicies{db: db}
}

func (r *providerPolicies) Get(ctx context.Context, provider Provider) (*ProviderPolicy, error) {
	policy := &ProviderPolicy{}
	err := r.db.NewSelect().
		Model(policy).
		Where("?TableAlias.provider = ?", string(provider)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return &ProviderPolicy{Provider: provider, Active: true}, nil
		}
		return nil, err
	}
	return policy, nil
}

func (r *providerPolicies) Set(ctx context.Context, provider Provider, active bool) (*ProviderPolicy, error) {
	now := time.Now()
	policy := &ProviderPolicy{
		Provider:  provider,
		Active:    active,
		UpdatedAt: &now,
	}

	_, err := r.db.NewInsert().
		Model(policy).
		On("CONFLICT (provider) DO UPDATE").
		Set("active = EXCLUDED.active").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return policy, nil
}

func (r *providerPolicies) List(ctx context.Context) ([]*ProviderPolicy, error) {
	var policies []*ProviderPolicy
	err := r.db.NewSelect().
		Model(&policies).
		Order("provider ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return policies, nil
}
