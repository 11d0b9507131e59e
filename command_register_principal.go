package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterPrincipalMessage struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Password    string `json:"password"`
	UseHashid   bool
}

func (e RegisterPrincipalMessage) Type() string { return "principal.register" }

// RegisterPrincipalHandler creates a local-credentials principal. Social
// principals are provisioned lazily on first login instead.
type RegisterPrincipalHandler struct {
	repo RepositoryManager
}

func NewRegisterPrincipalHandler(repo RepositoryManager) *RegisterPrincipalHandler {
	return &RegisterPrincipalHandler{repo: repo}
}

func (h *RegisterPrincipalHandler) Execute(ctx context.Context, event RegisterPrincipalMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during principal registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterPrincipalHandler) execute(ctx context.Context, event RegisterPrincipalMessage) error {
	principal := &Principal{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		role := event.Role
		if role == "" || !IsValidRole(role) {
			role = RoleUser
		}

		principal.Role = role
		principal.Provider = ProviderLocal
		principal.ExternalID = event.Email
		principal.Email = event.Email
		principal.DisplayName = event.DisplayName
		principal.PasswordHash = hash
		principal.Status = UserStatusNormal
		if role == RoleSeller {
			principal.SellerStatus = SellerStatusPending
		}
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				principal.ID = id
			}
		}

		if principal, err = h.repo.Principals().CreateTx(ctx, tx, principal); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create principal")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "principal registration transaction failed")
	}

	return nil
}
