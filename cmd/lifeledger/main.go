package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"lifeledger/internal/auth"
	"lifeledger/internal/cli"
	apphttp "lifeledger/internal/http"
	"lifeledger/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger(nil, log.ComponentApp), "Invalid configuration", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	result, err := cli.OpenBackend(context.Background(), logger, cfg, true)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend close failed", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Backend:            result.Backend,
		Issuer:             auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RequestTimeout:     cfg.RequestTimeout,
	})

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting lifeledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
