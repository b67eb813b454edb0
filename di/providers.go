package di

import (
	"reservo/config"
	"reservo/infras/kafka"
	"reservo/infras/otel"
	"reservo/infras/postgres"
	authService "reservo/internal/domains/auth/service"
	"reservo/internal/domains/booking/event"
	tableRepository "reservo/internal/domains/table/repository"
	"reservo/shared/cache"
)

// Seeder holds what cmd/seed writes with.
type Seeder struct {
	Config *config.Config
	DB     *postgres.Connection
	Auth   authService.Auth
	Tables tableRepository.Table
}

// bookingEventHandlers run in process when Kafka is disabled and in the worker otherwise.
func bookingEventHandlers(redisCache cache.RedisCache) []event.Handler {
	return []event.Handler{
		event.LogEvent(),
		event.InvalidateAvailability(redisCache),
	}
}

func provideBookingPublisher(cfg *config.Config, client kafka.Client, otel otel.Otel, redisCache cache.RedisCache) event.Publisher {
	return event.NewPublisher(cfg, client, otel, bookingEventHandlers(redisCache)...)
}

func provideBookingConsumer(cfg *config.Config, client kafka.Client, redisCache cache.RedisCache) *event.Consumer {
	return event.NewConsumer(cfg, client, bookingEventHandlers(redisCache)...)
}
