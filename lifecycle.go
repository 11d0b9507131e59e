package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

type transitionOptions struct {
	metadata TransitionMetadata
}

func buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

// LifecycleOption customizes lifecycle machine construction.
type LifecycleOption func(*lifecycleMachine)

// WithLifecycleClock injects a custom clock (useful for tests).
func WithLifecycleClock(clock func() time.Time) LifecycleOption {
	return func(m *lifecycleMachine) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithLifecycleActivitySink sets the ActivitySink used to publish lifecycle events.
func WithLifecycleActivitySink(sink ActivitySink) LifecycleOption {
	return func(m *lifecycleMachine) {
		m.activitySink = normalizeActivitySink(sink)
	}
}

// WithLifecycleLogger overrides the logger used for sink failures.
func WithLifecycleLogger(logger Logger) LifecycleOption {
	return func(m *lifecycleMachine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// SellerLifecycle owns the merchant-approval transition rules. The storage
// layer persists whatever it is told; validity is decided here.
type SellerLifecycle interface {
	Transition(ctx context.Context, actor ActorRef, principal *Principal, target SellerStatus, opts ...TransitionOption) (*Principal, error)
	Apply(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error)
	Approve(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error)
	Reject(ctx context.Context, actor ActorRef, principal *Principal, reason RejectionReason, opts ...TransitionOption) (*Principal, error)
}

// UserLifecycle owns the account status transition rules.
type UserLifecycle interface {
	Transition(ctx context.Context, actor ActorRef, principal *Principal, target UserStatus, opts ...TransitionOption) (*Principal, error)
	MarkDormant(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error)
	Reactivate(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error)
	Withdraw(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error)
}

// PrincipalStatusStore is the write surface the lifecycle machines need from
// the principals repository.
type PrincipalStatusStore interface {
	UpdateSellerStatus(ctx context.Context, id uuid.UUID, status SellerStatus, reason RejectionReason) (*Principal, error)
	UpdateUserStatus(ctx context.Context, id uuid.UUID, status UserStatus, withdrawnAt *time.Time) (*Principal, error)
}

type lifecycleMachine struct {
	principals   PrincipalStatusStore
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

func newLifecycleMachine(principals PrincipalStatusStore, opts ...LifecycleOption) *lifecycleMachine {
	m := &lifecycleMachine{
		principals:   principals,
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// NewSellerLifecycle returns the default implementation backed by the provided repository.
func NewSellerLifecycle(principals PrincipalStatusStore, opts ...LifecycleOption) SellerLifecycle {
	return &sellerLifecycle{
		lifecycleMachine: newLifecycleMachine(principals, opts...),
		transitions: map[SellerStatus]map[SellerStatus]struct{}{
			// empty source covers the initial application
			"": {
				SellerStatusPending: {},
			},
			SellerStatusPending: {
				SellerStatusApproved: {},
				SellerStatusRejected: {},
			},
			// approved and rejected are terminal; no re-application path
		},
	}
}

// NewUserLifecycle returns the default implementation backed by the provided repository.
func NewUserLifecycle(principals PrincipalStatusStore, opts ...LifecycleOption) UserLifecycle {
	return &userLifecycle{
		lifecycleMachine: newLifecycleMachine(principals, opts...),
		transitions: map[UserStatus]map[UserStatus]struct{}{
			UserStatusNormal: {
				UserStatusDormant:   {},
				UserStatusWithdrawn: {},
			},
			UserStatusDormant: {
				UserStatusNormal:    {},
				UserStatusWithdrawn: {},
			},
			// withdrawn is terminal
		},
	}
}

type sellerLifecycle struct {
	*lifecycleMachine
	transitions map[SellerStatus]map[SellerStatus]struct{}
}

func (m *sellerLifecycle) Transition(ctx context.Context, actor ActorRef, principal *Principal, target SellerStatus, opts ...TransitionOption) (*Principal, error) {
	if principal == nil {
		return nil, withMeta(ErrInvalidTransition, map[string]any{
			"target": target,
			"reason": "principal is nil",
		})
	}

	from := principal.SellerStatus
	if target == "" {
		return nil, withMeta(ErrInvalidTransition, map[string]any{
			"reason": "target status is empty",
		})
	}

	if from == target {
		return principal, nil
	}

	if from == SellerStatusApproved || from == SellerStatusRejected {
		return nil, withMeta(ErrTerminalState, map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if !canTransition(m.transitions, from, target) {
		return nil, withMeta(ErrInvalidTransition, map[string]any{
			"from": from,
			"to":   target,
		})
	}

	options := buildTransitionOptions(opts...)

	var reason RejectionReason
	if target == SellerStatusRejected {
		reason = RejectionReason(options.metadata.Reason)
		if !reason.IsValid() {
			return nil, withMeta(ErrInvalidTransition, map[string]any{
				"to":     target,
				"reason": "rejection reason is not in the taxonomy",
			})
		}
	}

	updated, err := m.principals.UpdateSellerStatus(ctx, principal.ID, target, reason)
	if err != nil {
		return nil, err
	}

	principal.SellerStatus = target
	principal.RejectionReason = reason
	if updated != nil && updated.SellerStatus != "" {
		principal.SellerStatus = updated.SellerStatus
		principal.RejectionReason = updated.RejectionReason
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType:   ActivityEventSellerStatusChanged,
		Actor:       actor,
		PrincipalID: principal.ID.String(),
		Metadata:    transitionEventMetadata(string(from), string(target), options.metadata),
	})

	return principal, nil
}

func (m *sellerLifecycle) Apply(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error) {
	return m.Transition(ctx, actor, principal, SellerStatusPending, opts...)
}

func (m *sellerLifecycle) Approve(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error) {
	return m.Transition(ctx, actor, principal, SellerStatusApproved, opts...)
}

func (m *sellerLifecycle) Reject(ctx context.Context, actor ActorRef, principal *Principal, reason RejectionReason, opts ...TransitionOption) (*Principal, error) {
	opts = append(opts, WithTransitionReason(string(reason)))
	return m.Transition(ctx, actor, principal, SellerStatusRejected, opts...)
}

type userLifecycle struct {
	*lifecycleMachine
	transitions map[UserStatus]map[UserStatus]struct{}
}

func (m *userLifecycle) Transition(ctx context.Context, actor ActorRef, principal *Principal, target UserStatus, opts ...TransitionOption) (*Principal, error) {
	if principal == nil {
		return nil, withMeta(ErrInvalidTransition, map[string]any{
			"target": target,
			"reason": "principal is nil",
		})
	}

	principal.EnsureStatus()
	from := principal.Status
	if target == "" {
		return nil, withMeta(ErrInvalidTransition, map[string]any{
			"reason": "target status is empty",
		})
	}

	if from == target {
		return principal, nil
	}

	if from == UserStatusWithdrawn {
		return nil, withMeta(ErrTerminalState, map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if !canTransition(m.transitions, from, target) {
		return nil, withMeta(ErrInvalidTransition, map[string]any{
			"from": from,
			"to":   target,
		})
	}

	options := buildTransitionOptions(opts...)

	var withdrawnAt *time.Time
	if target == UserStatusWithdrawn {
		now := m.now()
		withdrawnAt = &now
	}

	updated, err := m.principals.UpdateUserStatus(ctx, principal.ID, target, withdrawnAt)
	if err != nil {
		return nil, err
	}

	principal.Status = target
	principal.WithdrawnAt = withdrawnAt
	if updated != nil && updated.Status != "" {
		principal.Status = updated.Status
		principal.WithdrawnAt = updated.WithdrawnAt
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType:   ActivityEventUserStatusChanged,
		Actor:       actor,
		PrincipalID: principal.ID.String(),
		Metadata:    transitionEventMetadata(string(from), string(target), options.metadata),
	})

	return principal, nil
}

func (m *userLifecycle) MarkDormant(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error) {
	return m.Transition(ctx, actor, principal, UserStatusDormant, opts...)
}

func (m *userLifecycle) Reactivate(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error) {
	return m.Transition(ctx, actor, principal, UserStatusNormal, opts...)
}

func (m *userLifecycle) Withdraw(ctx context.Context, actor ActorRef, principal *Principal, opts ...TransitionOption) (*Principal, error) {
	return m.Transition(ctx, actor, principal, UserStatusWithdrawn, opts...)
}

func canTransition[S comparable](transitions map[S]map[S]struct{}, from, to S) bool {
	if allowed, ok := transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (m *lifecycleMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("lifecycle activity sink error: %v", err)
	}
}

func transitionEventMetadata(from, to string, meta TransitionMetadata) map[string]any {
	result := map[string]any{
		"from": from,
		"to":   to,
	}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}
