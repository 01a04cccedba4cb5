package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// EnvConfig is the environment backed implementation of Config, plus
// the server level settings the cmd wiring needs. Verification tokens
// default to a 60 minute window, reset tokens to 5 minutes.
type EnvConfig struct {
	SigningKey           string        `env:"AUTH_SIGNING_KEY,required"`
	Issuer               string        `env:"AUTH_ISSUER"                 envDefault:"guddo-connection"`
	Audience             []string      `env:"AUTH_AUDIENCE"               envSeparator:"," envDefault:"guddo-connection"`
	AccessTokenTTL       time.Duration `env:"AUTH_ACCESS_TOKEN_TTL"       envDefault:"15m"`
	RefreshTokenTTL      time.Duration `env:"AUTH_REFRESH_TOKEN_TTL"      envDefault:"720h"`
	VerificationTokenTTL time.Duration `env:"AUTH_VERIFICATION_TOKEN_TTL" envDefault:"60m"`
	ResetTokenTTL        time.Duration `env:"AUTH_RESET_TOKEN_TTL"        envDefault:"5m"`
	AppURL               string        `env:"AUTH_APP_URL"                envDefault:"http://localhost:9099"`

	BindAddress string `env:"AUTH_BIND_ADDRESS" envDefault:":9099"`
	DatabaseDSN string `env:"AUTH_DATABASE_DSN" envDefault:"file:auth.db?cache=shared&_pragma=foreign_keys(1)"`

	SMTPHost     string `env:"AUTH_SMTP_HOST"`
	SMTPPort     string `env:"AUTH_SMTP_PORT" envDefault:"465"`
	SMTPUsername string `env:"AUTH_SMTP_USERNAME"`
	SMTPPassword string `env:"AUTH_SMTP_PASSWORD"`
	SMTPFrom     string `env:"AUTH_SMTP_FROM"`
}

// LoadConfigFromEnv parses the process environment into an EnvConfig.
func LoadConfigFromEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse environment configuration")
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string { return c.SigningKey }

func (c *EnvConfig) GetIssuer() string { return c.Issuer }

func (c *EnvConfig) GetAudience() []string { return c.Audience }

func (c *EnvConfig) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

func (c *EnvConfig) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }

func (c *EnvConfig) GetVerificationTokenTTL() time.Duration { return c.VerificationTokenTTL }

func (c *EnvConfig) GetResetTokenTTL() time.Duration { return c.ResetTokenTTL }

func (c *EnvConfig) GetAppURL() string { return c.AppURL }

// SMTP collects the mail transport settings for NewSMTPMailer.
func (c *EnvConfig) SMTP() SMTPConfig {
	return SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}
}

var _ Config = (*EnvConfig)(nil)
