package container

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"

	database "github.com/FACorreiaa/go-secure-demo/app/db"
	"github.com/FACorreiaa/go-secure-demo/app/observability/metrics"
	"github.com/FACorreiaa/go-secure-demo/app/session"
	"github.com/FACorreiaa/go-secure-demo/config"
	"github.com/FACorreiaa/go-secure-demo/internal/api/auth"
	"github.com/FACorreiaa/go-secure-demo/internal/api/pages"
	"github.com/FACorreiaa/go-secure-demo/internal/api/user"
	"github.com/FACorreiaa/go-secure-demo/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	UserRepo user.UserRepo
	Sessions *session.Manager

	AuthService  *auth.AuthServiceImpl
	AuthHandler  *auth.HandlerImpl
	UserHandler  *user.HandlerImpl
	PagesHandler *pages.HandlerImpl

	Authenticate func(http.Handler) http.Handler
	Authorize    func(http.Handler) http.Handler
}

// NewContainer wires every component on top of repo. A nil pool means the
// repository is not Postgres-backed.
func NewContainer(cfg *config.Config, repo user.UserRepo, pool *pgxpool.Pool, m *metrics.AppMetrics, logger *slog.Logger) (*Container, error) {
	rules, err := auth.RulesFromConfig(cfg.Security.Rules)
	if err != nil {
		return nil, fmt.Errorf("invalid security rules: %w", err)
	}

	providerNames := SetupOAuth(cfg, logger)

	sessionManager := session.NewManager(cfg.Session, logger)

	pagesHandler, err := pages.NewHandlerImpl(providerNames, logger)
	if err != nil {
		return nil, err
	}

	authService := auth.NewAuthService(repo, m, logger)
	authHandler := auth.NewAuthHandlerImpl(authService, sessionManager, auth.GothicFlow{}, pagesHandler, logger)

	userService := user.NewUserService(repo, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Pool:         pool,
		UserRepo:     repo,
		Sessions:     sessionManager,
		AuthService:  authService,
		AuthHandler:  authHandler,
		UserHandler:  userHandler,
		PagesHandler: pagesHandler,
		Authenticate: auth.Authenticate(sessionManager, authService, logger),
		Authorize:    auth.Authorize(rules, auth.UnauthorizedHandler(), auth.ForbiddenHandler(), m, logger),
	}, nil
}

// NewPostgresContainer migrates the database, opens the pool and wires the
// Postgres user repository.
func NewPostgresContainer(ctx context.Context, cfg *config.Config, m *metrics.AppMetrics, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	// Run migrations *before* initializing the main pool
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}
	if !database.WaitForDB(ctx, pool, logger) {
		pool.Close()
		return nil, fmt.Errorf("database not ready")
	}

	return NewContainer(cfg, user.NewPostgresUserRepo(pool, logger), pool, m, logger)
}

// Router builds the HTTP handler tree for the container.
func (c *Container) Router(metricsHandler http.Handler) http.Handler {
	return router.SetupRouter(&router.Config{
		AuthHandler:    c.AuthHandler,
		UserHandler:    c.UserHandler,
		PagesHandler:   c.PagesHandler,
		Authenticate:   c.Authenticate,
		Authorize:      c.Authorize,
		MetricsHandler: metricsHandler,
		AllowedOrigins: c.Config.Server.AllowedOrigins,
		Timeout:        c.Config.Server.Timeout,
		LoginRateLimit: c.Config.Server.LoginRateLimit,
		Logger:         c.Logger,
	})
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// SetupOAuth registers the configured goth providers and gothic's state
// store. Providers without a key are skipped. Returns the registered names.
func SetupOAuth(cfg *config.Config, logger *slog.Logger) []string {
	store := sessions.NewCookieStore([]byte(cfg.OAuth.StateSecret))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Session.Secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.MaxAge(600)
	gothic.Store = store

	var providers []goth.Provider
	var names []string
	for _, p := range cfg.OAuth.Providers {
		if p.Key == "" || p.Secret == "" {
			logger.Debug("Skipping OAuth provider without credentials", slog.String("provider", p.Name))
			continue
		}
		callback := cfg.OAuth.CallbackBaseURL + "/login/oauth2/code/" + p.Name
		switch p.Name {
		case "google":
			providers = append(providers, google.New(p.Key, p.Secret, callback, p.Scopes...))
		case "github":
			providers = append(providers, github.New(p.Key, p.Secret, callback, p.Scopes...))
		case "facebook":
			providers = append(providers, facebook.New(p.Key, p.Secret, callback, p.Scopes...))
		default:
			logger.Warn("Unsupported OAuth provider", slog.String("provider", p.Name))
			continue
		}
		names = append(names, p.Name)
	}
	if len(providers) > 0 {
		goth.UseProviders(providers...)
	}
	logger.Info("OAuth providers configured", slog.Any("providers", names))
	return names
}
