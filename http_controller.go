package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// AuthControllerRoutes holds the route paths the controller registers.
type AuthControllerRoutes struct {
	Login       string
	LoginLocal  string
	Refresh     string
	Logout      string
	Session     string
	AdminPrefix string
}

// AuthController exposes the JSON authentication API.
type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	Sellers      SellerLifecycle
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerSellerLifecycle(lifecycle SellerLifecycle) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sellers = lifecycle
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:       "/auth/login",
			LoginLocal:  "/auth/login/local",
			Refresh:     "/auth/refresh",
			Logout:      "/auth/logout",
			Session:     "/auth/session",
			AdminPrefix: "/admin",
		},
	}

	c.ErrorHandler = func(ctx router.Context, err error) error {
		return RenderError(ctx, err, c.Logger)
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the authentication endpoints. Admin routes should
// be wrapped in RequireSession middleware with MinimumRole super_admin by the
// caller; the handlers re-check nothing.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).SetName("auth.login")
	app.Post(controller.Routes.LoginLocal, controller.LoginLocalPost).SetName("auth.login-local")
	app.Post(controller.Routes.Refresh, controller.RefreshPost).SetName("auth.refresh")
	app.Post(controller.Routes.Logout, controller.LogoutPost).SetName("auth.logout")
	app.Get(controller.Routes.Session, controller.SessionGet).SetName("auth.session")

	admin := controller.Routes.AdminPrefix
	app.Post(fmt.Sprintf("%s/sellers/:id/approve", admin), controller.SellerApprovePost).
		SetName("admin.seller.approve")
	app.Post(fmt.Sprintf("%s/sellers/:id/reject", admin), controller.SellerRejectPost).
		SetName("admin.seller.reject")
	app.Get(fmt.Sprintf("%s/providers", admin), controller.ProviderPoliciesGet).
		SetName("admin.providers.list")
	app.Put(fmt.Sprintf("%s/providers/:provider", admin), controller.ProviderPolicyPut).
		SetName("admin.providers.set")
}

// LoginRequest is the social login payload. Attributes carry the raw profile
// payload already obtained from the provider's token endpoint.
type LoginRequest struct {
	Provider   string         `form:"provider" json:"provider"`
	Attributes map[string]any `form:"attributes" json:"attributes"`
	Role       string         `form:"role" json:"role"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Provider, validation.Required),
		validation.Field(&r.Attributes, validation.Required),
		validation.Field(&r.Role, validation.In(RoleGuest, RoleUser, RoleSeller, RoleSuperAdmin)),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	provider, ok := ParseProvider(payload.Provider)
	if !ok {
		return a.ErrorHandler(ctx, withMeta(ErrUnsupportedProvider, map[string]any{
			"provider": payload.Provider,
		}))
	}

	role := payload.Role
	if role == "" {
		role = RoleUser
	}

	pair, err := a.Auther.Login(ctx.Context(), provider, payload.Attributes, role)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// LocalLoginRequest is the email/password payload.
type LocalLoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LocalLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginLocalPost(ctx router.Context) error {
	payload := new(LocalLoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("local login parse payload", "error", err)
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Auther.LoginLocal(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// RefreshRequest carries the opaque refresh token value.
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Auther.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Auther.Logout(ctx.Context(), payload.RefreshToken); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"ok": true})
}

// SessionGet validates the bearer token and echoes the session snapshot.
func (a *AuthController) SessionGet(ctx router.Context) error {
	raw, err := extractRawToken(ctx, getTokenExtractors(defaultTokenLookup))
	if err != nil {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	session, err := a.Auther.SessionFromToken(raw)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, session)
}

// SellerReviewRequest is the admin approval/rejection payload.
type SellerReviewRequest struct {
	Reason string `form:"reason" json:"reason"`
	Note   string `form:"note" json:"note"`
}

func (a *AuthController) SellerApprovePost(ctx router.Context) error {
	principalID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	payload := new(SellerReviewRequest)
	// note body is optional on approval
	_ = ctx.Bind(payload)

	msg := ApproveSellerMessage{
		PrincipalID: principalID,
		ReviewerID:  a.reviewerID(ctx),
		Note:        payload.Note,
	}

	handler := NewApproveSellerHandler(a.Repo, a.sellerLifecycle())
	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{"ok": true})
}

func (a *AuthController) SellerRejectPost(ctx router.Context) error {
	principalID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	payload := new(SellerReviewRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	reason := RejectionReason(payload.Reason)
	if !reason.IsValid() {
		return a.ErrorHandler(ctx, withMeta(ErrInvalidTransition, map[string]any{
			"reason": payload.Reason,
		}))
	}

	msg := RejectSellerMessage{
		PrincipalID: principalID,
		ReviewerID:  a.reviewerID(ctx),
		Reason:      reason,
		Note:        payload.Note,
	}

	handler := NewRejectSellerHandler(a.Repo, a.sellerLifecycle())
	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{"ok": true})
}

func (a *AuthController) ProviderPoliciesGet(ctx router.Context) error {
	policies, err := a.Repo.ProviderPolicies().List(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"policies": policies})
}

// ProviderPolicyRequest toggles a social provider on or off.
type ProviderPolicyRequest struct {
	Active bool `form:"active" json:"active"`
}

func (a *AuthController) ProviderPolicyPut(ctx router.Context) error {
	provider, ok := ParseProvider(ctx.Param("provider"))
	if !ok || !provider.IsSocial() {
		return a.ErrorHandler(ctx, withMeta(ErrUnsupportedProvider, map[string]any{
			"provider": ctx.Param("provider"),
		}))
	}

	payload := new(ProviderPolicyRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	msg := SetProviderPolicyMessage{
		Provider: provider,
		Active:   payload.Active,
		ActorID:  a.reviewerID(ctx),
	}

	handler := NewSetProviderPolicyHandler(a.Repo).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"ok": true})
}

func (a *AuthController) sellerLifecycle() SellerLifecycle {
	if a.Sellers != nil {
		return a.Sellers
	}
	return NewSellerLifecycle(a.Repo.Principals())
}

// reviewerID pulls the acting admin's id from the validated session claims.
func (a *AuthController) reviewerID(ctx router.Context) string {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return ""
	}
	return claims.PrincipalID()
}
