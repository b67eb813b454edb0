package event

//go:generate go run go.uber.org/mock/mockgen -source=./event.go -destination=../mocks/event_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservo/config"
	"reservo/infras/kafka"
	"reservo/infras/otel"
	"reservo/internal/domains/booking/model"
	"reservo/shared/constant"
	"reservo/shared/logger"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
)

const (
	TypeCreated   = "booking.created"
	TypeConfirmed = "booking.confirmed"
	TypeCancelled = "booking.cancelled"
	TypeCompleted = "booking.completed"
	TypeNoShow    = "booking.no_show"

	HeaderEventType = "event_type"
)

var typeByStatus = map[string]string{
	model.StatusConfirmed: TypeConfirmed,
	model.StatusCancelled: TypeCancelled,
	model.StatusCompleted: TypeCompleted,
	model.StatusNoShow:    TypeNoShow,
}

// Event is the record published for every booking change. GuestPhone is
// masked so the topic never holds a full phone number.
type Event struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"booking_id"`
	Code        string    `json:"code"`
	TableID     int64     `json:"table_id"`
	BookingDate string    `json:"booking_date"`
	BookingTime string    `json:"booking_time"`
	Status      string    `json:"status"`
	PartySize   int       `json:"party_size"`
	GuestPhone  string    `json:"guest_phone"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// FromBooking describes booking after a change. Status changes map to their own type.
func FromBooking(eventType string, booking model.Booking, at time.Time) Event {
	if eventType == constant.Empty {
		eventType = typeByStatus[booking.Status]
	}

	return Event{
		Type:        eventType,
		BookingID:   booking.ID,
		Code:        booking.Code,
		TableID:     booking.TableID,
		BookingDate: booking.Date(),
		BookingTime: booking.BookingTime,
		Status:      booking.Status,
		PartySize:   booking.PartySize,
		GuestPhone:  logger.MaskPhone(booking.GuestPhone),
		OccurredAt:  at,
	}
}

// Handler reacts to a booking event. Handlers must be idempotent, Kafka redelivers.
type Handler func(ctx context.Context, event Event) error

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type publisherImpl struct {
	cfg      *config.Config
	client   kafka.Client
	otel     otel.Otel
	handlers []Handler
}

// NewPublisher sends events to Kafka when it is enabled and otherwise runs handlers in process.
func NewPublisher(cfg *config.Config, client kafka.Client, otel otel.Otel, handlers ...Handler) Publisher {
	return &publisherImpl{
		cfg:      cfg,
		client:   client,
		otel:     otel,
		handlers: handlers,
	}
}

func (p *publisherImpl) Publish(ctx context.Context, event Event) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelKafkaScopeName, constant.OtelKafkaScopeName+".Publish")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute("event.type", event.Type)

	if !p.cfg.Kafka.Enable || p.client == nil {
		return Dispatch(ctx, event, p.handlers...)
	}

	err = p.client.SendMessages(ctx, p.cfg.Booking.EventsTopic, kafka.Message{
		Key:     event.BookingID,
		Value:   event,
		Headers: map[string]string{HeaderEventType: event.Type},
	})
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Str("booking_id", event.BookingID).Msg("failed to publish booking event")

		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	return nil
}

// Dispatch runs every handler and joins their errors.
func Dispatch(ctx context.Context, event Event, handlers ...Handler) error {
	errs := []error{}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.Error().Err(err).Str("type", event.Type).Msg("booking event handler failed")

			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type Consumer struct {
	cfg      *config.Config
	client   kafka.Client
	handlers []Handler
}

func NewConsumer(cfg *config.Config, client kafka.Client, handlers ...Handler) *Consumer {
	return &Consumer{
		cfg:      cfg,
		client:   client,
		handlers: handlers,
	}
}

// Run blocks until ctx is done. Handler failures are retried by the client
// and never stop the loop.
func (c *Consumer) Run(ctx context.Context) error {
	log.Info().Str("topic", c.cfg.Booking.EventsTopic).Msg("booking event consumer started")

	defer func() {
		if err := c.client.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka client")
		}
	}()

	err := c.client.Consume(ctx, c.cfg.Kafka.ConsumerGroup, c.cfg.Booking.EventsTopic, c.Handle)
	if err != nil {
		return fmt.Errorf("booking event consumer: %w", err)
	}

	return nil
}

func (c *Consumer) Handle(ctx context.Context, message kafkaGo.Message) error {
	event, err := kafka.Decode[Event](message)
	if err != nil {
		log.Error().Err(err).Msg("dropping undecodable booking event")

		return fmt.Errorf("failed to decode booking event: %w", err)
	}

	if header := kafka.Header(message, HeaderEventType); header != "" && header != event.Type {
		log.Warn().Str("header", header).Str("type", event.Type).Msg("booking event type header mismatch")
	}

	return Dispatch(ctx, event, c.handlers...)
}
