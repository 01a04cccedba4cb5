package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token string `json:"token"`
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

// VerifyEmailHandler consumes a verification token and enables the
// gated account. Tokens are single use: success deletes the row, and
// an expired token is deleted as a side effect of being read.
type VerifyEmailHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewVerifyEmailHandler(repo RepositoryManager) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	expired := false

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.VerificationTokens().GetByTokenTx(ctx, tx, event.Token)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrTokenNotFound
			}
			return WrapPersistence(err, "failed to retrieve verification token")
		}

		if record.IsExpired(timeNow()) {
			// cleanup on read: the delete must commit, so the closure
			// returns nil and the expired error surfaces afterwards.
			// A later retry with the same value reports not found.
			if err := h.repo.VerificationTokens().DeleteByIDTx(ctx, tx, record.ID); err != nil {
				return WrapPersistence(err, "failed to delete expired verification token")
			}
			expired = true
			return nil
		}

		if record.UserID == nil {
			return goerrors.New("verification token is not associated with a user", goerrors.CategoryInternal)
		}

		if err := h.repo.Users().EnableTx(ctx, tx, *record.UserID); err != nil {
			return WrapPersistence(err, "failed to enable user")
		}

		if err := h.repo.VerificationTokens().DeleteByIDTx(ctx, tx, record.ID); err != nil {
			return WrapPersistence(err, "failed to consume verification token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify email")
	}

	if expired {
		return ErrTokenExpired
	}

	return nil
}

var _ command.Commander[VerifyEmailMessage] = (*VerifyEmailHandler)(nil)
