package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// FederatedAssertion is the externally verified identity claim handed
// to the merge. The OAuth handshake that produced it stays outside
// this package; see AssertionVerifier for the signature check.
type FederatedAssertion struct {
	Provider   string
	ProviderID string
	Email      string
	FirstName  string
	LastName   string
}

// FederatedMerger reconciles a provider assertion with a local account:
// provider-id match first, then email reuse, then signup. Newly created
// accounts are enabled with a random, never disclosed password hash, so
// they can only authenticate by repeating the federated flow.
type FederatedMerger struct {
	repo   RepositoryManager
	logger Logger
}

func NewFederatedMerger(repo RepositoryManager) *FederatedMerger {
	return &FederatedMerger{
		repo:   repo,
		logger: defLogger{},
	}
}

func (m *FederatedMerger) WithLogger(logger Logger) *FederatedMerger {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Merge resolves the assertion to a User the caller can mint a session
// for. Idempotent: the same (provider, providerId) always resolves to
// the same account. On an email collision the existing account is
// reused and the provider pair is attached, so the next assertion
// resolves through the provider-id lookup.
func (m *FederatedMerger) Merge(ctx context.Context, assertion FederatedAssertion) (*User, error) {
	provider := strings.ToUpper(strings.TrimSpace(assertion.Provider))
	if provider == "" || assertion.ProviderID == "" {
		return nil, goerrors.New("assertion is missing provider identity", goerrors.CategoryBadInput)
	}
	if assertion.Email == "" {
		return nil, goerrors.New("assertion is missing an email", goerrors.CategoryBadInput)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{}

	err := m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = m.repo.Users().GetByProviderTx(ctx, tx, provider, assertion.ProviderID)
		if err == nil {
			return nil
		}
		if !goerrors.IsNotFound(err) {
			return WrapPersistence(err, "failed to look up federated account")
		}

		user, err = m.repo.Users().GetByEmailTx(ctx, tx, assertion.Email)
		if err == nil {
			return m.attachProvider(ctx, tx, user, provider, assertion.ProviderID)
		}
		if !goerrors.IsNotFound(err) {
			return WrapPersistence(err, "failed to look up account by email")
		}

		user, err = m.signup(ctx, tx, assertion, provider)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to merge federated identity")
	}

	return user, nil
}

func (m *FederatedMerger) attachProvider(ctx context.Context, tx bun.IDB, user *User, provider, providerID string) error {
	if user.Provider == provider && user.ProviderID == providerID {
		return nil
	}

	user.Provider = provider
	user.ProviderID = providerID

	if _, err := m.repo.Users().UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String())); err != nil {
		return WrapPersistence(err, "failed to attach provider identity")
	}

	return nil
}

func (m *FederatedMerger) signup(ctx context.Context, tx bun.IDB, assertion FederatedAssertion, provider string) (*User, error) {
	firstName := assertion.FirstName
	if firstName == "" {
		firstName = "Unknown"
	}

	user := &User{
		FirstName:    firstName,
		LastName:     assertion.LastName,
		Email:        assertion.Email,
		PasswordHash: RandomPasswordHash(),
		Role:         RoleUser,
		Enabled:      true,
		Provider:     provider,
		ProviderID:   assertion.ProviderID,
	}

	created, err := m.repo.Users().RegisterTx(ctx, tx, user)
	if err != nil {
		return nil, WrapPersistence(err, "failed to create federated account")
	}

	m.logger.Info("federated signup", "provider", provider, "email", created.Email)

	return created, nil
}
