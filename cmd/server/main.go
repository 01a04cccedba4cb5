package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/anvthe/guddo-connection"
)

type App struct {
	config *auth.EnvConfig
	bunDB  *bun.DB
	repo   auth.RepositoryManager
	auther auth.Authenticator
	tokens auth.TokenService
	mailer auth.Mailer
	srv    router.Server[*fiber.App]
	logger auth.Logger
}

func main() {
	cfg, err := auth.LoadConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	app := &App{
		config: cfg,
		logger: auth.NewDefaultLogger(),
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithMailer(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		log.Fatal(err)
	}

	go func() {
		if err := app.srv.Serve(cfg.BindAddress); err != nil {
			app.logger.Error("server stopped: %s", err)
		}
	}()

	WaitExitSignal()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown: %s", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.DatabaseDSN)
	if err != nil {
		return err
	}

	persistence.RegisterModel((*auth.User)(nil))
	persistence.RegisterModel((*auth.VerificationToken)(nil))
	persistence.RegisterModel((*auth.PasswordResetToken)(nil))

	client, err := persistence.New(persistenceConfig{app.config.DatabaseDSN}, db, sqlitedialect.New())
	if err != nil {
		return err
	}

	bunDB := client.DB()

	for _, model := range []any{
		(*auth.User)(nil),
		(*auth.VerificationToken)(nil),
		(*auth.PasswordResetToken)(nil),
	} {
		if _, err := bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	repo := auth.NewRepositoryManager(bunDB)
	if err := repo.Validate(); err != nil {
		return err
	}

	app.bunDB = bunDB
	app.repo = repo

	return nil
}

func WithMailer(_ context.Context, app *App) error {
	if app.config.SMTPHost == "" {
		app.logger.Warn("no SMTP host configured, mail goes to the log")
		app.mailer = auth.NewLogMailer(app.logger)
		return nil
	}

	app.mailer = auth.NewSMTPMailer(app.config.SMTP()).WithLogger(app.logger)
	return nil
}

func WithHTTPServer(_ context.Context, app *App) error {
	userProvider := auth.NewUserProvider(app.repo.Users()).WithLogger(app.logger)

	app.tokens = auth.NewTokenService(app.config, app.logger)
	app.auther = auth.NewAuthenticator(userProvider, app.tokens).WithLogger(app.logger)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	controller := auth.NewAuthController(
		app.repo,
		app.auther,
		app.tokens,
		app.mailer,
		app.config,
		auth.WithControllerLogger(app.logger),
	)

	httpAuth := auth.NewHTTPAuthenticator(app.tokens, app.config)
	protected := httpAuth.ProtectedRoute(nil)

	auth.RegisterAuthRoutes(srv.Router(), controller, protected)

	app.srv = srv

	return nil
}

// persistenceConfig is the minimal config surface the persistence
// client needs for a local sqlite database.
type persistenceConfig struct {
	dsn string
}

func (c persistenceConfig) GetDSN() string { return c.dsn }

func (c persistenceConfig) GetDriver() string { return sqliteshim.ShimName }

func (c persistenceConfig) GetServer() string { return "" }

func (c persistenceConfig) GetOtelIdentifier() string { return "" }

func (c persistenceConfig) GetDebug() bool { return false }

func (c persistenceConfig) GetPingTimeout() time.Duration { return time.Second * 5 }

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
