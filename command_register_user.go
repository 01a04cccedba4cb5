package auth

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate enforces the input rules before the handler runs.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email,
			validation.Required.Error("Email is mandatory"),
			validation.Length(0, 100),
			is.Email.Error("Please provide a valid email address"),
		),
		validation.Field(&e.Password,
			validation.Required.Error("Password is mandatory"),
			validation.Length(5, 0).Error("Password must be at least 5 characters long"),
		),
		validation.Field(&e.FirstName,
			validation.Required.Error("First name is mandatory"),
		),
	)
}

// RegisterUserHandler creates a disabled account, a verification token
// gating it, and triggers the verification mail.
type RegisterUserHandler struct {
	repo   RepositoryManager
	mailer Mailer
	cfg    Config
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, mailer Mailer, cfg Config) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, firstValidationMessage(err))
	}

	user := &User{}
	token := &VerificationToken{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Fast path only: the unique index on email is the final
		// arbiter under concurrent registration.
		exists, err := h.repo.Users().ExistsByEmailTx(ctx, tx, event.Email)
		if err != nil {
			return WrapPersistence(err, "failed to check email availability")
		}
		if exists {
			return ErrEmailTaken
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Role = RoleUser
		user.Enabled = false
		if id, err := hashid.NewUUID(NormalizeEmail(event.Email)); err == nil {
			user.ID = id
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		token = NewVerificationToken(user, h.cfg.GetVerificationTokenTTL())
		if _, err = h.repo.VerificationTokens().CreateTx(ctx, tx, token); err != nil {
			return WrapPersistence(err, "failed to create verification token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.sendVerificationMail(user, token)

	return nil
}

// sendVerificationMail is fire and forget: delivery failures never
// block or roll back the registration.
func (h *RegisterUserHandler) sendVerificationMail(user *User, token *VerificationToken) {
	link := fmt.Sprintf("%s/auth/verify?token=%s", h.cfg.GetAppURL(), token.Token)
	subject := "Account Verification"
	body := fmt.Sprintf(
		"Hello %s,\n\nPlease verify your account by clicking the link below:\n%s\n\nThis link will expire in 60 minutes.",
		user.FirstName, link,
	)

	go func() {
		if err := h.mailer.Send(context.Background(), user.Email, subject, body); err != nil {
			h.logger.Warn("verification mail delivery failed", "email", user.Email, "error", err)
		}
	}()
}

var _ command.Commander[RegisterUserMessage] = (*RegisterUserHandler)(nil)
