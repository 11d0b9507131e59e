package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type ApproveSellerMessage struct {
	PrincipalID uuid.UUID `json:"principal_id"`
	ReviewerID  string    `json:"reviewer_id"`
	Note        string    `json:"note"`
}

func (e ApproveSellerMessage) Type() string { return "seller.approve" }

type ApproveSellerHandler struct {
	repo      RepositoryManager
	lifecycle SellerLifecycle
}

func NewApproveSellerHandler(repo RepositoryManager, lifecycle SellerLifecycle) *ApproveSellerHandler {
	return &ApproveSellerHandler{repo: repo, lifecycle: lifecycle}
}

func (h *ApproveSellerHandler) Execute(ctx context.Context, event ApproveSellerMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during seller approval")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ApproveSellerHandler) execute(ctx context.Context, event ApproveSellerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	principal, err := h.repo.Principals().GetByUUID(ctx, event.PrincipalID)
	if err != nil {
		return err
	}

	opts := []TransitionOption{}
	if event.Note != "" {
		opts = append(opts, WithTransitionMetadata(map[string]any{"note": event.Note}))
	}

	_, err = h.lifecycle.Approve(ctx, reviewerActor(event.ReviewerID), principal, opts...)
	return err
}

type RejectSellerMessage struct {
	PrincipalID uuid.UUID       `json:"principal_id"`
	ReviewerID  string          `json:"reviewer_id"`
	Reason      RejectionReason `json:"reason"`
	Note        string          `json:"note"`
}

func (e RejectSellerMessage) Type() string { return "seller.reject" }

type RejectSellerHandler struct {
	repo      RepositoryManager
	lifecycle SellerLifecycle
}

func NewRejectSellerHandler(repo RepositoryManager, lifecycle SellerLifecycle) *RejectSellerHandler {
	return &RejectSellerHandler{repo: repo, lifecycle: lifecycle}
}

func (h *RejectSellerHandler) Execute(ctx context.Context, event RejectSellerMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during seller rejection")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RejectSellerHandler) execute(ctx context.Context, event RejectSellerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	principal, err := h.repo.Principals().GetByUUID(ctx, event.PrincipalID)
	if err != nil {
		return err
	}

	opts := []TransitionOption{}
	if event.Note != "" {
		opts = append(opts, WithTransitionMetadata(map[string]any{"note": event.Note}))
	}

	_, err = h.lifecycle.Reject(ctx, reviewerActor(event.ReviewerID), principal, event.Reason, opts...)
	return err
}

func reviewerActor(id string) ActorRef {
	if id == "" {
		return ActorRef{Type: "system"}
	}
	return ActorRef{ID: id, Type: string(RoleSuperAdmin)}
}
