package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type SetProviderPolicyMessage struct {
	Provider Provider `json:"provider"`
	Active   bool     `json:"active"`
	ActorID  string   `json:"actor_id"`
}

func (e SetProviderPolicyMessage) Type() string { return "provider.policy.set" }

type SetProviderPolicyHandler struct {
	repo         RepositoryManager
	activitySink ActivitySink
	logger       Logger
}

func NewSetProviderPolicyHandler(repo RepositoryManager) *SetProviderPolicyHandler {
	return &SetProviderPolicyHandler{
		repo:         repo,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

func (h *SetProviderPolicyHandler) WithActivitySink(sink ActivitySink) *SetProviderPolicyHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *SetProviderPolicyHandler) WithLogger(logger Logger) *SetProviderPolicyHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SetProviderPolicyHandler) Execute(ctx context.Context, event SetProviderPolicyMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during provider policy update")
	default:
		return h.execute(ctx, event)
	}
}

func (h *SetProviderPolicyHandler) execute(ctx context.Context, event SetProviderPolicyMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if !event.Provider.IsSocial() {
		return withMeta(ErrUnsupportedProvider, map[string]any{
			"provider": string(event.Provider),
		})
	}

	policy, err := h.repo.ProviderPolicies().Set(ctx, event.Provider, event.Active)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update provider policy")
	}

	sink := normalizeActivitySink(h.activitySink)
	if err := sink.Record(ctx, ActivityEvent{
		EventType: ActivityEventProviderPolicyChanged,
		Actor:     reviewerActor(event.ActorID),
		Metadata: map[string]any{
			"provider": string(policy.Provider),
			"active":   policy.Active,
		},
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}

	return nil
}
