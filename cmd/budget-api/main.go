package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"budgetboard/internal/backend"
	"budgetboard/internal/cli"
	"budgetboard/internal/config"
	apphttp "budgetboard/internal/http"
	applog "budgetboard/internal/log"
)

func main() {
	cfg := cli.LoadConfig((*config.Config).ValidateAPI)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentAPI)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(initCtx, backendCfg)
	cancelInit()
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", backendCfg.Type.String())
		os.Exit(1)
	}

	srv, err := apphttp.NewAPIServer(":"+cfg.APIPort, result.Service, result.Ready, logger)
	if err != nil {
		logger.Error("Failed to create API server", applog.FieldError, err)
		_ = result.Cleanup()
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API server shutdown error", applog.FieldError, err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting budget API", "port", cfg.APIPort, "backend", backendCfg.Type.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", applog.FieldError, err, "port", cfg.APIPort)
		_ = result.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("API server stopped gracefully")
}
