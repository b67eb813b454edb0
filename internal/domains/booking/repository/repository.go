package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"reservo/infras/otel"
	"reservo/infras/postgres"
	"reservo/internal/domains/booking/model"
	tableModel "reservo/internal/domains/table/model"
	"reservo/shared"
	"reservo/shared/constant"
	gDto "reservo/shared/dto"
	gRepo "reservo/shared/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type CreateParams struct {
	Booking         model.Booking
	ConflictPolicy  string
	MaxCodeAttempts int
	NewCode         func() string
}

type Booking interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	// CreateAtomic locks the table row, re-checks availability and inserts the
	// booking with a fresh unique code in a single transaction.
	CreateAtomic(ctx context.Context, params CreateParams) (model.Booking, error)
	// Transition locks the booking row, applies guard and writes changes when guard allows it.
	Transition(ctx context.Context, id string, guard func(model.Booking) error, changes map[string]any) (model.Booking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	tables gRepo.Repository[tableModel.Table]
	db     *postgres.Connection
	otel   otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		tables:     gRepo.NewRepository[tableModel.Table](tableModel.EntityName, tableModel.TableName, tableModel.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// SameDayFilter selects the active bookings of a table on a date.
func SameDayFilter(tableID int64, date string) gDto.FilterGroup {
	return ActiveOnDateFilter(date).With(gDto.Eq(model.TableName, model.FieldTableID, tableID))
}

// ActiveOnDateFilter selects every pending or confirmed booking on a date.
func ActiveOnDateFilter(date string) gDto.FilterGroup {
	return gDto.And(
		gDto.Eq(model.TableName, model.FieldBookingDate, date),
		gDto.In(model.TableName, model.FieldStatus, model.ActiveStatuses),
		gDto.Eq(model.TableName, model.FieldIsDeleted, false),
	)
}

func (r *repositoryImpl) CreateAtomic(ctx context.Context, params CreateParams) (res model.Booking, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.CreateAtomic")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking := params.Booking

	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		table, err := r.tables.GetForUpdateTx(ctx, tx, shared.FilterByID(fmt.Sprint(booking.TableID), tableModel.FieldID, tableModel.TableName))
		if err != nil {
			return fmt.Errorf("failed to lock table: %w", err)
		}

		switch {
		case !table.Exists():
			return model.ErrTableNotFound
		case !table.Bookable():
			return model.ErrTableUnavailable
		case table.Capacity < booking.PartySize:
			return model.ErrCapacityExceeded
		}

		sameDay, err := r.GetAllTx(ctx, tx, SameDayFilter(booking.TableID, booking.Date()))
		if err != nil {
			return fmt.Errorf("failed to load bookings for the day: %w", err)
		}

		if model.Conflicts(params.ConflictPolicy, sameDay, booking.BookingTime, booking.DurationHours) {
			return model.ErrSlotTaken
		}

		booking.Code, err = r.uniqueCode(ctx, tx, params)
		if err != nil {
			return err
		}

		return r.InsertTx(ctx, tx, booking)
	})

	if err != nil {
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) {
			return res, err
		}

		switch pqErr.Code {
		case constant.PqErrorCodeUniqueViolation:
			log.Warn().Str("constraint", pqErr.Constraint).Msg("booking code collided on insert")

			return res, model.ErrCodeExhausted
		case constant.PqErrorCodeFkViolation:
			return res, model.ErrTableNotFound
		}

		return res, err
	}

	return booking, nil
}

func (r *repositoryImpl) uniqueCode(ctx context.Context, tx *sqlx.Tx, params CreateParams) (string, error) {
	attempts := max(params.MaxCodeAttempts, 1)

	for attempt := range attempts {
		code := params.NewCode()

		existing, err := r.GetForUpdateTx(ctx, tx, gDto.And(gDto.Eq(model.TableName, model.FieldCode, code)))
		if err != nil {
			return constant.Empty, fmt.Errorf("failed to check booking code: %w", err)
		}

		if existing.ID == constant.Empty {
			return code, nil
		}

		log.Warn().Int("attempt", attempt+1).Msg("booking code already taken, retrying")
	}

	return constant.Empty, model.ErrCodeExhausted
}

func (r *repositoryImpl) Transition(ctx context.Context, id string, guard func(model.Booking) error, changes map[string]any) (res model.Booking, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Transition")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := r.GetForUpdateTx(ctx, tx, filter)
		if err != nil {
			return fmt.Errorf("failed to lock booking: %w", err)
		}

		if current.ID == constant.Empty || current.IsDeleted {
			return model.ErrBookingNotFound
		}

		if err = guard(current); err != nil {
			return err
		}

		if err = r.UpdateTx(ctx, tx, changes, filter); err != nil {
			return err //nolint:wrapcheck
		}

		res, err = r.GetForUpdateTx(ctx, tx, filter)

		return err //nolint:wrapcheck
	})

	return res, err
}
