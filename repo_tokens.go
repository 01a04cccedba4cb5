package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationTokens persists email verification tokens
type VerificationTokens interface {
	repository.Repository[*VerificationToken]

	GetByToken(ctx context.Context, token string) (*VerificationToken, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*VerificationToken, error)
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	DeleteForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

// PasswordResetTokens persists password reset tokens
type PasswordResetTokens interface {
	repository.Repository[*PasswordResetToken]

	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error)
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	DeleteForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
	DeleteExpiredTx(ctx context.Context, tx bun.IDB, now time.Time) error
}

type verificationTokens struct {
	repository.Repository[*VerificationToken]
	db *bun.DB
}

func NewVerificationTokensRepository(db *bun.DB) VerificationTokens {
	repo := repository.NewRepository[*VerificationToken](db, repository.ModelHandlers[*VerificationToken]{
		NewRecord: func() *VerificationToken { return &VerificationToken{} },
		GetID: func(t *VerificationToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *VerificationToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &verificationTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *verificationTokens) GetByToken(ctx context.Context, token string) (*VerificationToken, error) {
	return r.GetByTokenTx(ctx, r.db, token)
}

func (r *verificationTokens) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*VerificationToken, error) {
	record := &VerificationToken{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"token": token})
		}
		return nil, err
	}

	return record, nil
}

func (r *verificationTokens) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*VerificationToken)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func (r *verificationTokens) DeleteForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*VerificationToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)

	return err
}

type passwordResetTokens struct {
	repository.Repository[*PasswordResetToken]
	db *bun.DB
}

func NewPasswordResetTokensRepository(db *bun.DB) PasswordResetTokens {
	repo := repository.NewRepository[*PasswordResetToken](db, repository.ModelHandlers[*PasswordResetToken]{
		NewRecord: func() *PasswordResetToken { return &PasswordResetToken{} },
		GetID: func(t *PasswordResetToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *PasswordResetToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &passwordResetTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *passwordResetTokens) GetByToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	return r.GetByTokenTx(ctx, r.db, token)
}

func (r *passwordResetTokens) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error) {
	record := &PasswordResetToken{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"token": token})
		}
		return nil, err
	}

	return record, nil
}

func (r *passwordResetTokens) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*PasswordResetToken)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func (r *passwordResetTokens) DeleteForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*PasswordResetToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)

	return err
}

// DeleteExpiredTx opportunistically sweeps stale reset tokens. Expiry
// decisions still happen at read time, this only reclaims rows.
func (r *passwordResetTokens) DeleteExpiredTx(ctx context.Context, tx bun.IDB, now time.Time) error {
	_, err := tx.NewDelete().
		Model((*PasswordResetToken)(nil)).
		Where("?TableAlias.expires_at < ?", now).
		Exec(ctx)

	return err
}
