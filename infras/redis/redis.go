package redis

import (
	"context"
	"crypto/tls"
	"net"
	"reservo/config"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const pingTimeout = 5 * time.Second

// New connects to the primary Redis. Sessions, locks and caches all live
// there, so the process does not start without it.
func New(config *config.Config) *goRedis.Client {
	primary := config.Cache.Redis.Primary

	options := &goRedis.Options{
		Addr:     net.JoinHostPort(primary.Host, primary.Port),
		Password: primary.Password,
		DB:       primary.DB,
		PoolSize: primary.PoolSize,
	}

	if primary.TLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: primary.Host}
	}

	client := goRedis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", options.Addr).Msg("Failed to connect to Redis")
	}

	log.Info().
		Int("db", primary.DB).
		Str("addr", options.Addr).
		Bool("tls", primary.TLS).
		Msg("Connected to Redis")

	return client
}
