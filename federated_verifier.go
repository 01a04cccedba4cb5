package auth

import (
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// FederatedProviderConfig describes one upstream identity provider.
// JWKSURL is the provider's published key set, Issuer and Audience
// are matched against the ID token's registered claims.
type FederatedProviderConfig struct {
	Name     string
	JWKSURL  string
	Issuer   string
	Audience string
}

type federatedIDClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// AssertionVerifier checks provider ID tokens against each provider's
// JWKS and maps the claims into a FederatedAssertion the merge can
// consume. Key sets refresh in the background for the life of the
// verifier.
type AssertionVerifier struct {
	providers map[string]FederatedProviderConfig
	keys      map[string]jwt.Keyfunc
	logger    Logger
}

func NewAssertionVerifier(providers ...FederatedProviderConfig) (*AssertionVerifier, error) {
	v := &AssertionVerifier{
		providers: make(map[string]FederatedProviderConfig, len(providers)),
		keys:      make(map[string]jwt.Keyfunc, len(providers)),
		logger:    defLogger{},
	}

	for _, p := range providers {
		name := strings.ToUpper(strings.TrimSpace(p.Name))
		if name == "" || p.JWKSURL == "" {
			return nil, goerrors.New("provider needs a name and a JWKS URL", goerrors.CategoryBadInput)
		}

		jwks, err := keyfunc.Get(p.JWKSURL, keyfunc.Options{
			RefreshErrorHandler: func(err error) {
				v.logger.Warn("background JWKS refresh failed", "provider", name, "error", err)
			},
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  time.Minute * 5,
			RefreshTimeout:    time.Second * 10,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch provider JWKS").
				WithMetadata(map[string]any{"provider": name})
		}

		v.providers[name] = p
		v.keys[name] = jwks.Keyfunc
	}

	return v, nil
}

func (v *AssertionVerifier) WithLogger(logger Logger) *AssertionVerifier {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Verify validates the ID token issued by the named provider and
// returns the assertion carried in its claims.
func (v *AssertionVerifier) Verify(provider, idToken string) (FederatedAssertion, error) {
	name := strings.ToUpper(strings.TrimSpace(provider))

	cfg, ok := v.providers[name]
	if !ok {
		return FederatedAssertion{}, goerrors.New("unknown identity provider", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"provider": provider})
	}

	opts := []jwt.ParserOption{}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &federatedIDClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, v.keys[name], opts...)
	if err != nil || !token.Valid {
		return FederatedAssertion{}, goerrors.Wrap(err, goerrors.CategoryAuth, "provider token rejected").
			WithTextCode(TextCodeSessionMalformed).
			WithMetadata(map[string]any{"provider": name})
	}

	if claims.Subject == "" || claims.Email == "" {
		return FederatedAssertion{}, goerrors.New("provider token is missing subject or email", goerrors.CategoryAuth).
			WithTextCode(TextCodeSessionMalformed)
	}

	return FederatedAssertion{
		Provider:   name,
		ProviderID: claims.Subject,
		Email:      claims.Email,
		FirstName:  claims.GivenName,
		LastName:   claims.FamilyName,
	}, nil
}
