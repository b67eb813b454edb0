package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reservo/config"
	"reservo/di"
	"reservo/shared/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.Setup(cfg)

	if !cfg.Kafka.Enable {
		log.Fatal().Msg("Kafka is disabled, booking events are handled in process by the API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := di.InitializeWorker().Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Booking event consumer failed.")
	}

	log.Info().Msg("Booking event consumer stopped.")
}
