package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"smartsave/internal/backend"
	"smartsave/internal/cli"
	"smartsave/internal/config"
	apphttp "smartsave/internal/http"
	"smartsave/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.SessionSecret == config.DefaultSessionSecret {
		logger.Warn("Using the development session secret, set SESSION_SECRET in production")
	}

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	b := result.Backend

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Auth:               b.Auth,
		Transactions:       b.Transactions,
		Budgets:            b.Budgets,
		Goals:              b.Goals,
		Insights:           b.Insights,
		Ready:              b.Repository.Ping,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      cfg.SecureCookies,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting smartsave server", "port", cfg.Port, "driver", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
