// @title                       Identity Service API
// @version                     1.0
// @description                 User registration, login and bearer session management.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/99minutos/identity-service/internal/app"
	"github.com/99minutos/identity-service/internal/infrastructure/config"
	"github.com/99minutos/identity-service/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "identity-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start identity service")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("store_backend", cfg.StoreBackend).
		Str("session_backend", cfg.SessionBackend).
		Msg("identity service starting")

	runErr := a.Run(ctx)

	if err := a.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to close backends")
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("identity service stopped with error")
	}
	log.Info().Msg("identity service stopped")
}
