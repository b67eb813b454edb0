package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"reservo/config"
	"reservo/infras/otel/mocks"
	bookingMocks "reservo/internal/domains/booking/mocks"
	"reservo/internal/domains/booking/model"
	"reservo/internal/domains/booking/model/dto"
	"reservo/internal/domains/booking/repository"
	"reservo/internal/domains/booking/service"
	cacheMocks "reservo/shared/cache/mocks"
	"reservo/shared/constant"
	gDto "reservo/shared/dto"
	"reservo/shared/failure"
	"reservo/shared/timezone"
)

const fixedCode = "ABCD1234"

type fixture struct {
	repo      *bookingMocks.MockBooking
	publisher *bookingMocks.MockPublisher
	svc       service.Booking
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	return newFixtureWithCache(t, nil)
}

// newFixtureWithCache lets expectCache register cache expectations ahead of the defaults.
func newFixtureWithCache(t *testing.T, expectCache func(*cacheMocks.MockRedisCache)) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.App.BookingLookupURL = "https://reservo.example.com/restaurant-booking/search"
	cfg.Booking.ConflictPolicy = config.ConflictPolicyOverlap
	cfg.Booking.MaxAdvanceDays = 30
	cfg.Booking.CodeMaxAttempts = 5
	cfg.Booking.DefaultDurationHours = 2
	cfg.Booking.OpeningTime = "10:00"
	cfg.Booking.ClosingTime = "22:00"
	cfg.Booking.CancelCutoffHours = 2

	redisCache := cacheMocks.NewMockRedisCache(ctrl)
	if expectCache != nil {
		expectCache(redisCache)
	}

	redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss")).AnyTimes()
	redisCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	redisCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	redisCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f := fixture{
		repo:      bookingMocks.NewMockBooking(ctrl),
		publisher: bookingMocks.NewMockPublisher(ctrl),
	}

	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.svc = service.NewWithCodeGenerator(f.repo, f.publisher, cfg, redisCache, mocks.NewOtel(), func() string { return fixedCode })

	return f
}

func tomorrow() string {
	return timezone.Now().AddDate(0, 0, 1).Format(constant.DateOnlyLayout)
}

func validRequest() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		TableID:     3,
		GuestName:   " Nguyễn Văn A ",
		GuestPhone:  "0901 234 567",
		BookingDate: tomorrow(),
		BookingTime: "19:00",
		PartySize:   4,
	}
}

func echoCreate(t *testing.T, wantStatus string) func(context.Context, repository.CreateParams) (model.Booking, error) {
	t.Helper()

	return func(_ context.Context, params repository.CreateParams) (model.Booking, error) {
		assert.Equal(t, wantStatus, params.Booking.Status)
		assert.Equal(t, config.ConflictPolicyOverlap, params.ConflictPolicy)
		assert.Equal(t, 5, params.MaxCodeAttempts)
		assert.Equal(t, "Nguyễn Văn A", params.Booking.GuestName)
		assert.Equal(t, "0901234567", params.Booking.GuestPhone)
		assert.InDelta(t, 2.0, params.Booking.DurationHours, 0.001)

		booking := params.Booking
		booking.Code = params.NewCode()

		return booking, nil
	}
}

func TestBookingService_Book(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().CreateAtomic(gomock.Any(), gomock.Any()).DoAndReturn(echoCreate(t, model.StatusConfirmed))

	res, err := f.svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, fixedCode, res.Booking.Code)
	assert.Equal(t, model.StatusConfirmed, res.Booking.Status)
	assert.Equal(t, model.SourceWebsite, res.Booking.Source)
	assert.Contains(t, res.Message, fixedCode)
	assert.Contains(t, res.Message, "https://reservo.example.com/restaurant-booking/search?code="+fixedCode)
}

func TestBookingService_BookRequiresGuestContact(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*dto.CreateBookingRequest)
		wantMsg string
	}{
		{
			name:    "no name or phone",
			mutate:  func(req *dto.CreateBookingRequest) { req.GuestName, req.GuestPhone = "", "" },
			wantMsg: "Vui lòng cho biết tên người đặt bàn.",
		},
		{
			name:    "blank name",
			mutate:  func(req *dto.CreateBookingRequest) { req.GuestName = "   " },
			wantMsg: "Vui lòng cho biết tên người đặt bàn.",
		},
		{
			name:    "no phone",
			mutate:  func(req *dto.CreateBookingRequest) { req.GuestPhone = "" },
			wantMsg: "Số điện thoại người đặt bàn chưa hợp lệ.",
		},
		{
			name:    "phone is not a number",
			mutate:  func(req *dto.CreateBookingRequest) { req.GuestPhone = "gọi sau" },
			wantMsg: "Số điện thoại người đặt bàn chưa hợp lệ.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.EXPECT().CreateAtomic(gomock.Any(), gomock.Any()).Times(0)

			req := validRequest()
			tt.mutate(&req)

			_, err := f.svc.Book(context.Background(), req)

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestBookingService_BookClearsFloorPlans(t *testing.T) {
	cleared := make(chan struct{})

	f := newFixtureWithCache(t, func(redisCache *cacheMocks.MockRedisCache) {
		redisCache.EXPECT().Clear(gomock.Any(), "table:floors:*").DoAndReturn(func(context.Context, string) error {
			close(cleared)

			return nil
		})
	})
	f.repo.EXPECT().CreateAtomic(gomock.Any(), gomock.Any()).DoAndReturn(echoCreate(t, model.StatusConfirmed))

	_, err := f.svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatal("floor plan cache was not cleared")
	}
}

func TestBookingService_Create(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(req *dto.CreateBookingRequest)
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "pending booking",
			setupMock: func(f fixture) {
				f.repo.EXPECT().CreateAtomic(gomock.Any(), gomock.Any()).DoAndReturn(echoCreate(t, model.StatusPending))
			},
		},
		{
			name: "slot already taken",
			setupMock: func(f fixture) {
				f.repo.EXPECT().CreateAtomic(gomock.Any(), gomock.Any()).Return(model.Booking{}, model.ErrSlotTaken)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "table missing",
			setupMock: func(f fixture) {
				f.repo.EXPECT().CreateAtomic(gomock.Any(), gomock.Any()).Return(model.Booking{}, model.ErrTableNotFound)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "party larger than table",
			setupMock: func(f fixture) {
				f.repo.EXPECT().CreateAtomic(gomock.Any(), gomock.Any()).Return(model.Booking{}, model.ErrCapacityExceeded)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "code space exhausted",
			setupMock: func(f fixture) {
				f.repo.EXPECT().CreateAtomic(gomock.Any(), gomock.Any()).Return(model.Booking{}, model.ErrCodeExhausted)
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name:      "date in the past",
			mutate:    func(req *dto.CreateBookingRequest) { req.BookingDate = "2020-01-01" },
			setupMock: func(fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "after closing time",
			mutate:    func(req *dto.CreateBookingRequest) { req.BookingTime = "22:30" },
			setupMock: func(fixture) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			req := validRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			res, err := f.svc.Create(context.Background(), req)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, fixedCode, res.Code)
			assert.Equal(t, model.StatusPending, res.Status)
		})
	}
}

func TestBookingService_GetByCode(t *testing.T) {
	t.Run("code is matched case-insensitively", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (model.Booking, error) {
			_, args := filter.GetWhereClause()
			assert.Equal(t, fixedCode, args[model.FieldCode])

			return model.Booking{ID: "b-1", Code: fixedCode}, nil
		})

		res, err := f.svc.GetByCode(context.Background(), " abcd1234 ")
		require.NoError(t, err)
		assert.Equal(t, "b-1", res.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := f.svc.GetByCode(context.Background(), "ZZZZ9999")
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("malformed code", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.GetByCode(context.Background(), "abc")
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func applyGuard(current model.Booking) func(context.Context, string, func(model.Booking) error, map[string]any) (model.Booking, error) {
	return func(_ context.Context, _ string, guard func(model.Booking) error, changes map[string]any) (model.Booking, error) {
		if err := guard(current); err != nil {
			return model.Booking{}, err
		}

		updated := current
		updated.Status, _ = changes[model.FieldStatus].(string)

		return updated, nil
	}
}

func bookingAt(status string, start time.Time) model.Booking {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	return model.Booking{ID: "b-1", Code: fixedCode, Status: status, BookingDate: day, BookingTime: start.Format(constant.ClockLayout)}
}

func TestBookingService_Transitions(t *testing.T) {
	later := timezone.Now().AddDate(0, 0, 3)
	later = time.Date(later.Year(), later.Month(), later.Day(), 19, 0, 0, 0, later.Location())

	tests := []struct {
		name       string
		current    model.Booking
		call       func(svc service.Booking) (dto.BookingResponse, error)
		wantStatus string
		wantCode   int
	}{
		{
			name:    "cancel a confirmed booking",
			current: bookingAt(model.StatusConfirmed, later),
			call: func(svc service.Booking) (dto.BookingResponse, error) {
				return svc.Cancel(context.Background(), "b-1", dto.CancelBookingRequest{Reason: "đổi lịch"})
			},
			wantStatus: model.StatusCancelled,
		},
		{
			name:    "cancel an already cancelled booking",
			current: bookingAt(model.StatusCancelled, later),
			call: func(svc service.Booking) (dto.BookingResponse, error) {
				return svc.Cancel(context.Background(), "b-1", dto.CancelBookingRequest{})
			},
			wantCode: http.StatusConflict,
		},
		{
			name:    "cancel inside the cutoff window",
			current: bookingAt(model.StatusConfirmed, timezone.Now().Add(30*time.Minute)),
			call: func(svc service.Booking) (dto.BookingResponse, error) {
				return svc.Cancel(context.Background(), "b-1", dto.CancelBookingRequest{})
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "confirm a pending booking",
			current: bookingAt(model.StatusPending, later),
			call: func(svc service.Booking) (dto.BookingResponse, error) {
				return svc.Confirm(context.Background(), "b-1")
			},
			wantStatus: model.StatusConfirmed,
		},
		{
			name:    "confirm twice",
			current: bookingAt(model.StatusConfirmed, later),
			call: func(svc service.Booking) (dto.BookingResponse, error) {
				return svc.Confirm(context.Background(), "b-1")
			},
			wantCode: http.StatusConflict,
		},
		{
			name:    "complete a confirmed booking",
			current: bookingAt(model.StatusConfirmed, later),
			call: func(svc service.Booking) (dto.BookingResponse, error) {
				return svc.Complete(context.Background(), "b-1")
			},
			wantStatus: model.StatusCompleted,
		},
		{
			name:    "no-show for a pending booking",
			current: bookingAt(model.StatusPending, later),
			call: func(svc service.Booking) (dto.BookingResponse, error) {
				return svc.NoShow(context.Background(), "b-1")
			},
			wantCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.EXPECT().Transition(gomock.Any(), "b-1", gomock.Any(), gomock.Any()).DoAndReturn(applyGuard(tt.current))

			res, err := tt.call(f.svc)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
		})
	}
}

func TestBookingService_TransitionMissingBooking(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().Transition(gomock.Any(), "missing", gomock.Any(), gomock.Any()).Return(model.Booking{}, model.ErrBookingNotFound)

	_, err := f.svc.Confirm(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
}
