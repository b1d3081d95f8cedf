// Command reset deletes every user, session and audit event from the
// configured stores. It refuses to run with ENV=production.
package main

import (
	"context"
	"time"

	"github.com/99minutos/identity-service/internal/app"
	"github.com/99minutos/identity-service/internal/infrastructure/config"
	"github.com/99minutos/identity-service/pkg/logger"
)

const resetTimeout = 30 * time.Second

func main() {
	cfg := config.Load()

	base := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "identity-service",
	})
	log := logger.Component("reset")

	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()

	if cfg.IsProduction() {
		log.Fatal().Msg("refusing to reset stores in production")
	}

	a, err := app.New(ctx, cfg, base)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to stores")
	}

	resetErr := a.Reset(ctx)
	if err := a.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to close stores")
	}
	if resetErr != nil {
		log.Fatal().Err(resetErr).Msg("reset failed")
	}
	log.Info().Msg("stores reset")
}
