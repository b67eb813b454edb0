package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Table=MockTableService

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"reservo/config"
	"reservo/infras/otel"
	"reservo/infras/s3"
	bookingModel "reservo/internal/domains/booking/model"
	bookingRepo "reservo/internal/domains/booking/repository"
	"reservo/internal/domains/table/model"
	"reservo/internal/domains/table/model/dto"
	"reservo/internal/domains/table/repository"
	"reservo/shared"
	"reservo/shared/cache"
	"reservo/shared/constant"
	gDto "reservo/shared/dto"
	"reservo/shared/failure"
	"reservo/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetTable = "table:get"
	// CacheFloors holds the per-date floor plans. Booking changes must clear it.
	CacheFloors = "table:floors"

	allDates      = "all"
	tableNotFound = "table not found"
	anyTableType  = "ANY"
)

type Table interface {
	ListByFloor(ctx context.Context, date string) ([]dto.FloorGroup, error)
	Get(ctx context.Context, id int64) (dto.TableResponse, error)
	Search(ctx context.Context, req dto.SearchTablesRequest) (dto.SearchTablesResponse, error)
	Create(ctx context.Context, req dto.CreateTableRequest) (dto.TableResponse, error)
	Update(ctx context.Context, req dto.UpdateTableRequest, id int64) error
	Delete(ctx context.Context, id int64) error
	UploadImage(ctx context.Context, req dto.UploadTableImageRequest, id int64) (dto.TableResponse, error)
}

type serviceImpl struct {
	repo     repository.Table
	bookings bookingRepo.Booking
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
	s3       s3.S3
}

func New(repo repository.Table, bookings bookingRepo.Booking, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Table {
	return &serviceImpl{
		repo:     repo,
		bookings: bookings,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
		s3:       s3,
	}
}

func notDeleted() gDto.Filter {
	return gDto.Eq(model.TableName, model.FieldIsDeleted, false)
}

func byID(id int64) gDto.FilterGroup {
	return shared.FilterByID(strconv.FormatInt(id, 10), model.FieldID, model.TableName)
}

func (s *serviceImpl) ListByFloor(ctx context.Context, date string) (res []dto.FloorGroup, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".table.ListByFloor")
	defer scope.End()
	defer scope.TraceIfError(err)

	if date != constant.Empty {
		if _, err = timezone.ParseDate(date); err != nil {
			return res, failure.BadRequestFromString("date must be in YYYY-MM-DD format") // nolint:wrapcheck
		}
	}

	cacheKey := shared.BuildCacheKey(CacheFloors, cmp.Or(date, allDates))

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for table floors")

		return res, nil
	}

	tables, err := s.repo.GetAll(ctx, gDto.QueryParams{}, gDto.And(notDeleted()))
	if err != nil {
		log.Error().Err(err).Msg("failed to get tables")

		return res, fmt.Errorf("failed to get tables: %w", err)
	}

	slices.SortFunc(tables, func(a, b model.Table) int {
		return cmp.Or(cmp.Compare(a.Floor, b.Floor), cmp.Compare(a.ID, b.ID))
	})

	var booked map[int64]bool

	if date != constant.Empty {
		booked, err = s.bookedTables(ctx, date, constant.Empty, 0)
		if err != nil {
			return res, err
		}
	}

	res = dto.GroupByFloor(tables, booked)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save table floors to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) bookedTables(ctx context.Context, date, clock string, hours float64) (map[int64]bool, error) {
	bookings, err := s.bookings.GetAll(ctx, gDto.QueryParams{}, bookingRepo.ActiveOnDateFilter(date))
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("failed to get bookings for date")

		return nil, fmt.Errorf("failed to get bookings for date: %w", err)
	}

	return bookingModel.BookedTableIDs(s.cfg.Booking.ConflictPolicy, bookings, clock, hours), nil
}

func (s *serviceImpl) Get(ctx context.Context, id int64) (res dto.TableResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".table.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetTable, strconv.FormatInt(id, 10))

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for table")

		return res, nil
	}

	table, err := s.repo.Get(ctx, byID(id))
	if err != nil {
		log.Error().Err(err).Msg("failed to get table")

		return res, fmt.Errorf("failed to get table: %w", err)
	}

	if !table.Exists() {
		return res, failure.NotFound(tableNotFound) // nolint:wrapcheck
	}

	res.FromModel(table)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save table to cache")
		}
	}()

	return res, nil
}

func searchFilter(req dto.SearchTablesRequest) gDto.FilterGroup {
	filters := []any{
		notDeleted(),
		gDto.Eq(model.TableName, model.FieldStatus, model.StatusAvailable),
		gDto.GreaterEq(model.TableName, model.FieldCapacity, req.PartySize),
	}

	if req.TableType != constant.Empty && req.TableType != anyTableType {
		filters = append(filters, gDto.Eq(model.TableName, model.FieldTableType, req.TableType))
	}

	if req.Floor > 0 {
		filters = append(filters, gDto.Eq(model.TableName, model.FieldFloor, req.Floor))
	}

	if req.TableID > 0 {
		filters = append(filters, gDto.Eq(model.TableName, model.FieldID, req.TableID))
	}

	return gDto.And(filters...)
}

// Search returns bookable tables for the request ordered by capacity, floor and id.
// An empty result is reported through NotFound rather than an error.
func (s *serviceImpl) Search(ctx context.Context, req dto.SearchTablesRequest) (res dto.SearchTablesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".table.Search")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.PartySize < model.MinCapacity {
		return res, failure.BadRequestFromString("party_size must be at least 1") // nolint:wrapcheck
	}

	if err = bookingModel.ValidateDate(req.BookingDate, timezone.Now(), s.cfg.Booking.MaxAdvanceDays); err != nil {
		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	tables, err := s.repo.GetAll(ctx, gDto.QueryParams{}, searchFilter(req))
	if err != nil {
		log.Error().Err(err).Msg("failed to search tables")

		return res, fmt.Errorf("failed to search tables: %w", err)
	}

	hours := req.DurationHours
	if hours <= 0 {
		hours = s.cfg.Booking.DefaultDurationHours
	}

	booked, err := s.bookedTables(ctx, req.BookingDate, req.BookingTime, hours)
	if err != nil {
		return res, err
	}

	free := slices.DeleteFunc(tables, func(t model.Table) bool { return booked[t.ID] })

	slices.SortFunc(free, func(a, b model.Table) int {
		return cmp.Or(cmp.Compare(a.Capacity, b.Capacity), cmp.Compare(a.Floor, b.Floor), cmp.Compare(a.ID, b.ID))
	})

	res.FromModels(free, req)

	log.Info().Int("party_size", req.PartySize).Str("date", req.BookingDate).Int("found", len(free)).Msg("table search completed")

	return res, nil
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateTableRequest) (res dto.TableResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".table.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	table := req.ToModel(user)

	table.ID, err = s.repo.Create(ctx, table)
	if err != nil {
		log.Error().Err(err).Msg("failed to create table")

		return res, fmt.Errorf("failed to create table: %w", err)
	}

	res.FromModel(table)

	go func() {
		shared.InvalidateCaches(context.WithoutCancel(ctx), s.cache, CacheFloors)
	}()

	return res, nil
}

func (s *serviceImpl) getExisting(ctx context.Context, id int64) (model.Table, error) {
	table, err := s.repo.Get(ctx, byID(id))
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("failed to check table existence")

		return table, fmt.Errorf("failed to check table existence: %w", err)
	}

	if !table.Exists() {
		return table, failure.NotFound(tableNotFound) // nolint:wrapcheck
	}

	return table, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateTableRequest, id int64) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".table.Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if _, err = s.getExisting(ctx, id); err != nil {
		return err
	}

	if err = s.repo.Update(ctx, shared.TransformFields(req, user), byID(id)); err != nil {
		log.Error().Err(err).Msg("failed to update table")

		return fmt.Errorf("failed to update table: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id int64) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".table.Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if _, err = s.getExisting(ctx, id); err != nil {
		return err
	}

	if err = s.repo.Update(ctx, shared.TransformFields(dto.DeleteTableRequest{IsDeleted: true}, user), byID(id)); err != nil {
		log.Error().Err(err).Msg("failed to delete table")

		return fmt.Errorf("failed to delete table: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) UploadImage(ctx context.Context, req dto.UploadTableImageRequest, id int64) (res dto.TableResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".table.UploadImage")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	current, err := s.getExisting(ctx, id)
	if err != nil {
		return res, err
	}

	if req.Image == nil || req.ImageFile == nil {
		return res, failure.BadRequestFromString("image is required") // nolint:wrapcheck
	}

	key := path.Join(model.EntityName, strconv.FormatInt(id, 10), uuid.NewString()+strings.ToLower(path.Ext(req.Image.Filename)))

	url, err := s.s3.Upload(ctx, key, req.ImageFile, req.Image.Header.Get(constant.RequestHeaderContentType))
	if err != nil {
		log.Error().Err(err).Int64("table_id", id).Msg("failed to upload table image")

		return res, fmt.Errorf("failed to upload image: %w", err)
	}

	if err = s.repo.Update(ctx, shared.TransformFields(dto.UpdateImageRequest{ImageURL: url}, user), byID(id)); err != nil {
		log.Error().Err(err).Msg("failed to save table image")

		if delErr := s.s3.Delete(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("failed to clean up uploaded image")
		}

		return res, fmt.Errorf("failed to save table image: %w", err)
	}

	if current.ImageURL != nil {
		if old := s.s3.KeyFromURL(*current.ImageURL); old != constant.Empty {
			if delErr := s.s3.Delete(ctx, old); delErr != nil {
				log.Warn().Err(delErr).Str("key", old).Msg("failed to delete previous table image")
			}
		}
	}

	current.ImageURL = &url
	res.FromModel(current)

	s.invalidate(ctx, id)

	return res, nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id int64) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetTable, strconv.FormatInt(id, 10))); err != nil && !errors.Is(err, cache.Nil) {
			log.Error().Err(err).Msg("failed to delete table from cache")
		}

		shared.InvalidateCaches(c, s.cache, CacheFloors)
	}()
}
