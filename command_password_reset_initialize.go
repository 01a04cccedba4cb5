package auth

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
}

func (e InitializePasswordResetMessage) Type() string { return "user.password_reset" }

func (e InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email,
			validation.Required.Error("Email is mandatory"),
			validation.Length(0, 100),
			is.Email.Error("Please provide a valid email address"),
		),
	)
}

// InitializePasswordResetHandler issues a short lived reset token and
// mails the recovery link. Any previous live token for the user is
// superseded.
type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	cfg    Config
	logger Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer, cfg Config) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, firstValidationMessage(err))
	}

	user := &User{}
	token := &PasswordResetToken{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return WrapPersistence(err, "failed to retrieve user for password reset")
		}

		if !user.Enabled {
			return ErrAccountNotVerified
		}

		// at most one live token gates a recovery flow
		if err := h.repo.PasswordResetTokens().DeleteForUserTx(ctx, tx, user.ID); err != nil {
			return WrapPersistence(err, "failed to supersede previous reset tokens")
		}

		// opportunistic sweep of stale tokens across all users
		if err := h.repo.PasswordResetTokens().DeleteExpiredTx(ctx, tx, timeNow()); err != nil {
			return WrapPersistence(err, "failed to sweep expired reset tokens")
		}

		token = NewPasswordResetToken(user, h.cfg.GetResetTokenTTL())
		if _, err := h.repo.PasswordResetTokens().CreateTx(ctx, tx, token); err != nil {
			return WrapPersistence(err, "failed to create password reset token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	h.sendResetMail(user, token)

	return nil
}

func (h *InitializePasswordResetHandler) sendResetMail(user *User, token *PasswordResetToken) {
	link := fmt.Sprintf("%s/auth/reset-password?token=%s", h.cfg.GetAppURL(), token.Token)
	subject := "Password Reset Request"
	body := fmt.Sprintf(
		"Hello %s,\n\nClick the link below to reset your password:\n%s\n\nThis link will expire in 5 minutes.",
		user.FirstName, link,
	)

	go func() {
		if err := h.mailer.Send(context.Background(), user.Email, subject, body); err != nil {
			h.logger.Warn("reset mail delivery failed", "email", user.Email, "error", err)
		}
	}()
}

var _ command.Commander[InitializePasswordResetMessage] = (*InitializePasswordResetHandler)(nil)
