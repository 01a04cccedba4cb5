package auth

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

type AuthControllerRoutes struct {
	Register       string
	Verify         string
	Login          string
	UpdatePassword string
	ForgotPassword string
	ResetPassword  string
	RefreshToken   string
	Federated      string
}

// AuthController exposes the credential lifecycle as a JSON API.
type AuthController struct {
	Logger   Logger
	Repo     RepositoryManager
	Auther   Authenticator
	Tokens   TokenService
	Mailer   Mailer
	Cfg      Config
	Merger   *FederatedMerger
	Verifier *AssertionVerifier
	Routes   *AuthControllerRoutes
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

func WithFederated(merger *FederatedMerger, verifier *AssertionVerifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Merger = merger
		c.Verifier = verifier
		return c
	}
}

func NewAuthController(repo RepositoryManager, auther Authenticator, tokens TokenService, mailer Mailer, cfg Config, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Repo:   repo,
		Auther: auther,
		Tokens: tokens,
		Mailer: mailer,
		Cfg:    cfg,
		Routes: &AuthControllerRoutes{
			Register:       "/auth/register",
			Verify:         "/auth/verify",
			Login:          "/auth/login",
			UpdatePassword: "/auth/update-password",
			ForgotPassword: "/auth/forgot-password",
			ResetPassword:  "/auth/reset-password",
			RefreshToken:   "/auth/refresh-token",
			Federated:      "/auth/federated",
		},
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

// RegisterAuthRoutes mounts the controller. The update password route
// is gated behind a valid access token.
func RegisterAuthRoutes(app RouteRegistrar, controller *AuthController, protected router.MiddlewareFunc) {
	app.Post(controller.Routes.Register, controller.Register)
	app.Get(controller.Routes.Verify, controller.Verify)
	app.Post(controller.Routes.Login, controller.Login)
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword)
	app.Post(controller.Routes.ResetPassword, controller.ResetPassword)
	app.Post(controller.Routes.RefreshToken, controller.RefreshToken)
	app.Post(controller.Routes.UpdatePassword, controller.UpdatePassword, protected)

	if controller.Merger != nil && controller.Verifier != nil {
		app.Post(controller.Routes.Federated, controller.Federated)
	}
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegisterUserMessage)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: ", "error", err)
		return WriteError(ctx, ErrSessionMalformed)
	}

	handler := NewRegisterUserHandler(a.Repo, a.Mailer, a.Cfg).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		return WriteError(ctx, err)
	}

	return WriteSuccess(ctx, http.StatusCreated, "registration successful, check your email to verify your account")
}

func (a *AuthController) Verify(ctx router.Context) error {
	token := ctx.Query("token", "")

	handler := NewVerifyEmailHandler(a.Repo).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), VerifyEmailMessage{Token: token}); err != nil {
		return WriteError(ctx, err)
	}

	return WriteSuccess(ctx, http.StatusOK, "account verified, you can now log in")
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return WriteError(ctx, ErrInvalidCredentials)
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, ErrInvalidCredentials)
	}

	pair, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		ApiResponse: ApiResponse{
			StatusCode: http.StatusOK,
			Success:    true,
			Message:    "login successful",
		},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (a *AuthController) UpdatePassword(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return WriteError(ctx, ErrSessionMalformed)
	}

	payload := new(UpdatePasswordMessage)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("update password parse payload: ", "error", err)
		return WriteError(ctx, ErrPasswordMismatch)
	}
	payload.Subject = claims.SubjectEmail()

	handler := NewUpdatePasswordHandler(a.Repo).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		return WriteError(ctx, err)
	}

	return WriteSuccess(ctx, http.StatusOK, "password updated")
}

func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(InitializePasswordResetMessage)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload: ", "error", err)
		return WriteError(ctx, ErrIdentityNotFound)
	}

	handler := NewInitializePasswordResetHandler(a.Repo, a.Mailer, a.Cfg).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		return WriteError(ctx, err)
	}

	return WriteSuccess(ctx, http.StatusOK, "password reset email sent")
}

func (a *AuthController) ResetPassword(ctx router.Context) error {
	payload := new(FinalizePasswordResetMessage)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: ", "error", err)
		return WriteError(ctx, ErrPasswordMismatch)
	}
	payload.Token = ctx.Query("token", "")

	handler := NewFinalizePasswordResetHandler(a.Repo).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		return WriteError(ctx, err)
	}

	return WriteSuccess(ctx, http.StatusOK, "password has been reset, you can now log in")
}

func (a *AuthController) RefreshToken(ctx router.Context) error {
	refreshToken, err := BearerToken(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	pair, err := a.Auther.Refresh(ctx.Context(), refreshToken)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		ApiResponse: ApiResponse{
			StatusCode: http.StatusOK,
			Success:    true,
			Message:    "token refreshed",
		},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// FederatedRequest exchanges a provider ID token for a local session.
type FederatedRequest struct {
	Provider string `form:"provider" json:"provider"`
	IDToken  string `form:"id_token" json:"id_token"`
}

// Validate will run validation rules
func (r FederatedRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Provider, validation.Required),
		validation.Field(&r.IDToken, validation.Required),
	)
}

func (a *AuthController) Federated(ctx router.Context) error {
	payload := new(FederatedRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("federated parse payload: ", "error", err)
		return WriteError(ctx, ErrSessionMalformed)
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, ErrSessionMalformed)
	}

	assertion, err := a.Verifier.Verify(payload.Provider, payload.IDToken)
	if err != nil {
		return WriteError(ctx, err)
	}

	user, err := a.Merger.Merge(ctx.Context(), assertion)
	if err != nil {
		return WriteError(ctx, err)
	}

	identity := NewIdentityFromUser(user)

	access, err := a.Tokens.IssueAccessToken(identity)
	if err != nil {
		return WriteError(ctx, err)
	}

	refresh, err := a.Tokens.IssueRefreshToken(identity)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		ApiResponse: ApiResponse{
			StatusCode: http.StatusOK,
			Success:    true,
			Message:    "login successful",
		},
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// BearerToken extracts the bearer credential from the Authorization
// header. A missing or schemeless header is distinct from an invalid
// token, the refresh endpoint answers 400 to the former and 403 to the
// latter.
func BearerToken(ctx router.Context) (string, error) {
	header := ctx.GetString(router.HeaderAuthorization, "")
	if header == "" {
		return "", ErrMissingRefreshToken
	}

	const scheme = "Bearer"
	if len(header) <= len(scheme)+1 || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", ErrMissingRefreshToken
	}

	return strings.TrimSpace(header[len(scheme):]), nil
}
