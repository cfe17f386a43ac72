package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"budgetboard/internal/budgetapi"
	"budgetboard/internal/cli"
	"budgetboard/internal/config"
	"budgetboard/internal/dashboard"
	apphttp "budgetboard/internal/http"
	applog "budgetboard/internal/log"
	"budgetboard/internal/render"
)

func main() {
	cfg := cli.LoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	format, err := render.NewNumberFormat(cfg.Locale, cfg.CurrencySymbol)
	if err != nil {
		logger.Error("Invalid number format", applog.FieldError, err, "locale", cfg.Locale)
		os.Exit(1)
	}

	api, err := budgetapi.New(cfg.APIBaseURL, budgetapi.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to create budget API client", applog.FieldError, err, "base_url", cfg.APIBaseURL)
		os.Exit(1)
	}

	controller := dashboard.NewController(api, dashboard.NewRefresher(api, format, logger), logger)
	srv, err := apphttp.NewServer(apphttp.ServerConfig{
		Addr:               ":" + cfg.Port,
		SessionTTL:         cfg.SessionTTL,
		SessionMax:         cfg.SessionMax,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              api.Ping,
	}, controller, logger)
	if err != nil {
		logger.Error("Failed to create server", applog.FieldError, err)
		os.Exit(1)
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting budgetboard dashboard",
		"port", cfg.Port,
		"api_base_url", cfg.APIBaseURL,
		"locale", cfg.Locale)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
