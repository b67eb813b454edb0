//go:build wireinject
// +build wireinject

package di

import (
	"reservo/config"
	"reservo/infras/jwt"
	"reservo/infras/kafka"
	"reservo/infras/llm"
	"reservo/infras/otel"
	"reservo/infras/postgres"
	"reservo/infras/redis"
	"reservo/infras/s3"
	"reservo/internal/domains/booking/event"
	"reservo/permissions"
	"reservo/shared/cache"
	"reservo/transport/http"
	"reservo/transport/http/middleware"
	"reservo/transport/http/router"

	"github.com/google/wire"

	authService "reservo/internal/domains/auth/service"
	bookingRepository "reservo/internal/domains/booking/repository"
	bookingService "reservo/internal/domains/booking/service"
	conversationExtractor "reservo/internal/domains/conversation/extractor"
	conversationRepository "reservo/internal/domains/conversation/repository"
	conversationService "reservo/internal/domains/conversation/service"
	tableRepository "reservo/internal/domains/table/repository"
	tableService "reservo/internal/domains/table/service"
	userRepository "reservo/internal/domains/user/repository"
	authHandler "reservo/internal/handlers/auth"
	bookingHandler "reservo/internal/handlers/booking"
	conversationHandler "reservo/internal/handlers/conversation"
	healthHandler "reservo/internal/handlers/health"
	tableHandler "reservo/internal/handlers/table"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
	llm.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var authDomain = wire.NewSet(
	userRepository.New,
	authService.New,
)

var tableDomain = wire.NewSet(
	tableRepository.New,
	tableService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	provideBookingPublisher,
	bookingService.New,
)

var conversationDomain = wire.NewSet(
	conversationRepository.New,
	conversationExtractor.New,
	conversationService.New,
)

var domains = wire.NewSet(
	authDomain,
	tableDomain,
	bookingDomain,
	conversationDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	tableHandler.New,
	bookingHandler.New,
	conversationHandler.New,
	healthHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeWorker() *event.Consumer {
	wire.Build(
		config.Get,
		otel.New,
		redis.New,
		kafka.New,
		sharedHelpers,
		provideBookingConsumer,
	)

	return &event.Consumer{}
}

func InitializeSeeder() *Seeder {
	wire.Build(
		config.Get,
		otel.New,
		postgres.New,
		jwt.New,
		authDomain,
		tableRepository.New,
		wire.Struct(new(Seeder), "*"),
	)

	return &Seeder{}
}
