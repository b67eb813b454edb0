package event

import (
	"context"

	tableService "reservo/internal/domains/table/service"
	"reservo/shared"
	"reservo/shared/cache"

	"github.com/rs/zerolog/log"
)

// InvalidateAvailability drops the cached floor plans so the next read reflects the change.
func InvalidateAvailability(redisCache cache.RedisCache) Handler {
	return func(ctx context.Context, event Event) error {
		shared.InvalidateCaches(ctx, redisCache, tableService.CacheFloors)

		return nil
	}
}

// LogEvent writes an audit line per event.
func LogEvent() Handler {
	return func(_ context.Context, event Event) error {
		log.Info().
			Str("type", event.Type).
			Str("booking_id", event.BookingID).
			Str("code", event.Code).
			Int64("table_id", event.TableID).
			Str("booking_date", event.BookingDate).
			Str("booking_time", event.BookingTime).
			Int("party_size", event.PartySize).
			Str("guest_phone", event.GuestPhone).
			Msg("booking event")

		return nil
	}
}
