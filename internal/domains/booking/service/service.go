package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Booking=MockBookingService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reservo/config"
	"reservo/infras/otel"
	"reservo/internal/domains/booking/event"
	"reservo/internal/domains/booking/model"
	"reservo/internal/domains/booking/model/dto"
	"reservo/internal/domains/booking/repository"
	"reservo/shared"
	"reservo/shared/cache"
	"reservo/shared/constant"
	gDto "reservo/shared/dto"
	"reservo/shared/failure"
	"reservo/shared/timezone"
	"reservo/shared/validator"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"

	// ConfirmationFormat takes the code, the lookup URL and the code again.
	ConfirmationFormat = "Đã đặt bàn thành công. Mã đặt bàn: %s. Bạn có thể tra cứu thông tin đặt bàn tại đây: %s?code=%s"
)

type Booking interface {
	// Create stores a PENDING booking for staff or web clients.
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	// Book stores a CONFIRMED booking made through the assistant.
	Book(ctx context.Context, req dto.CreateBookingRequest) (dto.BookTableResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetByCode(ctx context.Context, code string) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) (dto.BookingResponse, error)
	Confirm(ctx context.Context, id string) (dto.BookingResponse, error)
	Complete(ctx context.Context, id string) (dto.BookingResponse, error)
	NoShow(ctx context.Context, id string) (dto.BookingResponse, error)
}

type serviceImpl struct {
	repo      repository.Booking
	publisher event.Publisher
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
	newCode   func() string
}

func New(repo repository.Booking, publisher event.Publisher, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Booking {
	return NewWithCodeGenerator(repo, publisher, cfg, cache, otel, model.NewCode)
}

func NewWithCodeGenerator(repo repository.Booking, publisher event.Publisher, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, newCode func() string) Booking {
	return &serviceImpl{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		cache:     cache,
		otel:      otel,
		newCode:   newCode,
	}
}

// mapError turns domain errors into HTTP failures. Unknown errors pass through.
func mapError(err error) error {
	switch {
	case errors.Is(err, model.ErrTableNotFound):
		return failure.NotFound("Không tìm thấy bàn phù hợp với yêu cầu của bạn. Vui lòng thử lại với thông tin khác.") // nolint:wrapcheck
	case errors.Is(err, model.ErrTableUnavailable):
		return failure.Conflict("Bàn này hiện không nhận đặt chỗ.") // nolint:wrapcheck
	case errors.Is(err, model.ErrCapacityExceeded):
		return failure.BadRequestFromString("Số lượng khách vượt quá sức chứa của bàn.") // nolint:wrapcheck
	case errors.Is(err, model.ErrSlotTaken):
		return failure.Conflict("Bàn đã có người đặt vào thời gian này.") // nolint:wrapcheck
	case errors.Is(err, model.ErrBookingNotFound):
		return failure.NotFound("booking not found") // nolint:wrapcheck
	case errors.Is(err, model.ErrInvalidTransition):
		return failure.Conflict(err.Error()) // nolint:wrapcheck
	case errors.Is(err, model.ErrCancelCutoff):
		return failure.BadRequest(err) // nolint:wrapcheck
	default:
		return err
	}
}

// validateGuest requires both contact fields, whichever path the request came from.
func validateGuest(req dto.CreateBookingRequest) error {
	if strings.TrimSpace(req.GuestName) == constant.Empty {
		return failure.BadRequestFromString("Vui lòng cho biết tên người đặt bàn.") // nolint:wrapcheck
	}

	if err := validator.ValidateVar(req.GuestPhone, "required,phone"); err != nil {
		return failure.BadRequestFromString("Số điện thoại người đặt bàn chưa hợp lệ.") // nolint:wrapcheck
	}

	return nil
}

func (s *serviceImpl) validateSlot(req dto.CreateBookingRequest, now time.Time) error {
	if err := model.ValidateDate(req.BookingDate, now, s.cfg.Booking.MaxAdvanceDays); err != nil {
		return failure.BadRequest(err) // nolint:wrapcheck
	}

	if err := model.ValidateTime(req.BookingDate, req.BookingTime, now, s.cfg.Booking.OpeningTime, s.cfg.Booking.ClosingTime); err != nil {
		return failure.BadRequest(err) // nolint:wrapcheck
	}

	return nil
}

func (s *serviceImpl) create(ctx context.Context, req dto.CreateBookingRequest, status string) (model.Booking, error) {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	now := timezone.Now()

	if err := validateGuest(req); err != nil {
		return model.Booking{}, err
	}

	if err := s.validateSlot(req, now); err != nil {
		return model.Booking{}, err
	}

	booking, err := req.ToModel(user, status, s.cfg.Booking.DefaultDurationHours)
	if err != nil {
		return booking, failure.BadRequest(err) // nolint:wrapcheck
	}

	created, err := s.repo.CreateAtomic(ctx, repository.CreateParams{
		Booking:         booking,
		ConflictPolicy:  s.cfg.Booking.ConflictPolicy,
		MaxCodeAttempts: s.cfg.Booking.CodeMaxAttempts,
		NewCode:         s.newCode,
	})
	if err != nil {
		log.Error().Err(err).Int64("table_id", req.TableID).Str("date", req.BookingDate).Msg("failed to create booking")

		return created, mapError(err)
	}

	log.Info().Str("code", created.Code).Int64("table_id", created.TableID).Str("status", created.Status).Msg("booking created")

	s.afterChange(ctx, event.FromBooking(event.TypeCreated, created, now), created.ID)

	return created, nil
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	created, err := s.create(ctx, req, model.StatusPending)
	if err != nil {
		return res, err
	}

	res.FromModel(created)

	return res, nil
}

func (s *serviceImpl) Book(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookTableResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Book")
	defer scope.End()
	defer scope.TraceIfError(err)

	req.Source = model.SourceWebsite

	created, err := s.create(ctx, req, model.StatusConfirmed)
	if err != nil {
		return res, err
	}

	res.Booking.FromModel(created)
	res.Message = fmt.Sprintf(ConfirmationFormat, created.Code, s.cfg.App.BookingLookupURL, created.Code)

	return res, nil
}

// afterChange publishes the event and clears list and floor plan caches. Neither failure undoes the committed change.
func (s *serviceImpl) afterChange(ctx context.Context, evt event.Event, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.publisher.Publish(c, evt); err != nil {
			log.Warn().Err(err).Str("type", evt.Type).Msg("booking event not delivered")
		}

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil && !errors.Is(err, cache.Nil) {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)

		// The floor plans show per-date availability; the worker may not be running.
		_ = event.InvalidateAvailability(s.cache)(c, evt)
	}()
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, err
	}

	if req.SortBy == constant.Empty {
		req.SortBy, req.SortDir = model.FieldCreatedAt, gDto.SortDirDesc
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty || booking.IsDeleted {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

// GetByCode looks a booking up by its code, ignoring case and surrounding spaces.
func (s *serviceImpl) GetByCode(ctx context.Context, code string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetByCode")
	defer scope.End()
	defer scope.TraceIfError(err)

	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != model.CodeLength {
		return res, failure.BadRequestFromString(fmt.Sprintf("booking code must have %d characters", model.CodeLength)) // nolint:wrapcheck
	}

	booking, err := s.repo.Get(ctx, gDto.And(
		gDto.Eq(model.TableName, model.FieldCode, code),
		gDto.Eq(model.TableName, model.FieldIsDeleted, false),
	))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking by code")

		return res, fmt.Errorf("failed to get booking by code: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) transition(ctx context.Context, id string, guard func(model.Booking) error, changes map[string]any) (res dto.BookingResponse, err error) {
	updated, err := s.repo.Transition(ctx, id, guard, changes)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to change booking status")

		return res, mapError(err)
	}

	s.afterChange(ctx, event.FromBooking(constant.Empty, updated, timezone.Now()), updated.ID)

	res.FromModel(updated)

	return res, nil
}

func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	now := timezone.Now()
	cutoff := time.Duration(s.cfg.Booking.CancelCutoffHours * float64(time.Hour))

	guard := func(booking model.Booking) error {
		return model.CanCancel(booking, now, cutoff)
	}

	return s.transition(ctx, id, guard, dto.CancelChanges(strings.TrimSpace(req.Reason), user, now))
}

func (s *serviceImpl) Confirm(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Confirm")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return s.transition(ctx, id, model.CanConfirm, dto.StatusChanges(model.StatusConfirmed, user))
}

func (s *serviceImpl) Complete(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Complete")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return s.transition(ctx, id, model.CanClose, dto.StatusChanges(model.StatusCompleted, user))
}

func (s *serviceImpl) NoShow(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.NoShow")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return s.transition(ctx, id, model.CanClose, dto.StatusChanges(model.StatusNoShow, user))
}
