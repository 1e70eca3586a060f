package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appLogger "github.com/FACorreiaa/go-secure-demo/app/logger"
	"github.com/FACorreiaa/go-secure-demo/internal/api/auth"
	"github.com/FACorreiaa/go-secure-demo/internal/api/pages"
	"github.com/FACorreiaa/go-secure-demo/internal/api/user"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler  *auth.HandlerImpl
	UserHandler  *user.HandlerImpl
	PagesHandler *pages.HandlerImpl

	// Authenticate and Authorize form the request gate.
	Authenticate func(http.Handler) http.Handler
	Authorize    func(http.Handler) http.Handler

	MetricsHandler http.Handler
	AllowedOrigins []string
	Timeout        time.Duration
	// LoginRateLimit is requests per IP per minute on credential posts; 0 disables it.
	LoginRateLimit int
	Logger         *slog.Logger
}

// SetupRouter builds the full handler tree.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if cfg.Timeout > 0 {
		r.Use(middleware.Timeout(cfg.Timeout))
	}
	r.Use(middleware.Compress(5, "application/json", "text/html"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.LoginRateLimit > 0 {
		throttle = httprate.LimitByIP(cfg.LoginRateLimit, time.Minute)
	}

	// The gate runs before routing so unrouted paths and wrong methods under
	// a protected prefix still get 401/403 instead of 404/405.
	r.Use(cfg.Authenticate)
	r.Use(cfg.Authorize)

	// Infrastructure endpoints match no rule.
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Pages
	r.Get("/", cfg.PagesHandler.Index)
	r.Get("/user", pages.Text("user"))
	r.Get("/admin", pages.Text("admin"))
	r.Get("/manager", pages.Text("manager"))
	r.Get("/login", pages.Text("login"))
	r.Get("/join", pages.Text("join"))
	r.Get("/joinProc", pages.Text(pages.JoinCompleted))

	// Login flow
	r.Get(auth.LoginPagePath, cfg.AuthHandler.LoginPage)
	r.With(throttle).Post(auth.LoginProcessPath, cfg.AuthHandler.LoginProc)
	r.Get(auth.LogoutPath, cfg.AuthHandler.Logout)
	r.Post(auth.LogoutPath, cfg.AuthHandler.Logout)
	r.Get("/oauth2/authorization/{provider}", cfg.AuthHandler.OAuthBegin)
	r.Get("/login/oauth2/code/{provider}", cfg.AuthHandler.OAuthCallback)
	r.With(throttle).Post("/join", cfg.AuthHandler.Join)

	// Signed-in and admin APIs; the rule table guards both prefixes.
	r.Get("/user/me", cfg.UserHandler.GetMe)
	r.Route("/admin/users", func(r chi.Router) {
		r.Get("/", cfg.UserHandler.ListUsers)
		r.Get("/{id}", cfg.UserHandler.GetUser)
		r.Patch("/{id}", cfg.UserHandler.UpdateUserStatus)
		r.Delete("/{id}", cfg.UserHandler.DeleteUser)
	})

	return r
}
