package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	appLogger "github.com/FACorreiaa/go-secure-demo/app/logger"
	"github.com/FACorreiaa/go-secure-demo/app/observability/metrics"
	"github.com/FACorreiaa/go-secure-demo/app/tracer"
	"github.com/FACorreiaa/go-secure-demo/config"
	_ "github.com/FACorreiaa/go-secure-demo/docs"
	"github.com/FACorreiaa/go-secure-demo/internal/api/user"
	"github.com/FACorreiaa/go-secure-demo/internal/container"
)

// @title           Secure Demo API
// @version         1.0
// @description     Form and OAuth login, path-based role authorization and user administration.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey SessionCookie
// @in              cookie
// @name            SESSION
func main() {
	// Use standard log until slog is configured, in case godotenv fails
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.New(cfg.Mode, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Application stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tel, err := tracer.InitTracingAndMetrics(cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
		}
	}()
	appMetrics, err := metrics.InitAppMetrics(cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("metrics setup: %w", err)
	}

	// --- Dependencies ---
	var c *container.Container
	if cfg.Repositories.Driver == "memory" {
		logger.Warn("Using in-memory user store; data is lost on restart")
		c, err = container.NewContainer(&cfg, user.NewMemoryUserRepo(logger), nil, appMetrics, logger)
	} else {
		c, err = container.NewPostgresContainer(ctx, &cfg, appMetrics, logger)
	}
	if err != nil {
		return err
	}
	defer c.Close()

	var metricsHandler http.Handler
	if cfg.Observability.MetricsEnabled {
		metricsHandler = tel.MetricsHandler()
	}

	// --- HTTP Server ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      otelhttp.NewHandler(c.Router(metricsHandler), cfg.Observability.ServiceName),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server graceful shutdown: %w", err)
		}
		logger.Info("HTTP server gracefully stopped")
		return nil
	})

	return g.Wait()
}
