package service_test

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"reservo/config"
	"reservo/infras/otel/mocks"
	s3Mocks "reservo/infras/s3/mocks"
	bookingMocks "reservo/internal/domains/booking/mocks"
	bookingModel "reservo/internal/domains/booking/model"
	tableMocks "reservo/internal/domains/table/mocks"
	"reservo/internal/domains/table/model"
	"reservo/internal/domains/table/model/dto"
	"reservo/internal/domains/table/service"
	cacheMocks "reservo/shared/cache/mocks"
	"reservo/shared/constant"
	"reservo/shared/failure"
	"reservo/shared/timezone"
)

type fixture struct {
	repo     *tableMocks.MockTable
	bookings *bookingMocks.MockBooking
	cache    *cacheMocks.MockRedisCache
	s3       *s3Mocks.MockS3
	svc      service.Table
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.Booking.ConflictPolicy = config.ConflictPolicySingleSeating
	cfg.Booking.MaxAdvanceDays = 30
	cfg.Booking.DefaultDurationHours = 2
	cfg.External.S3.BucketName = "tables"

	f := fixture{
		repo:     tableMocks.NewMockTable(ctrl),
		bookings: bookingMocks.NewMockBooking(ctrl),
		cache:    cacheMocks.NewMockRedisCache(ctrl),
		s3:       s3Mocks.NewMockS3(ctrl),
	}

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.svc = service.New(f.repo, f.bookings, cfg, f.cache, mocks.NewOtel(), f.s3)

	return f
}

func dayFromToday(days int) string {
	return timezone.Now().AddDate(0, 0, days).Format(constant.DateOnlyLayout)
}

func TestTableService_Search(t *testing.T) {
	tomorrow := dayFromToday(1)

	tables := []model.Table{
		{ID: 3, Capacity: 6, Floor: 1, Status: model.StatusAvailable, TableType: model.TypeIndoor},
		{ID: 1, Capacity: 4, Floor: 2, Status: model.StatusAvailable, TableType: model.TypeIndoor},
		{ID: 2, Capacity: 4, Floor: 1, Status: model.StatusAvailable, TableType: model.TypeIndoor},
	}

	tests := []struct {
		name      string
		req       dto.SearchTablesRequest
		setupMock func(f fixture)
		wantIDs   []int64
		notFound  bool
		wantCode  int
	}{
		{
			name: "excludes booked tables and orders by capacity then floor",
			req:  dto.SearchTablesRequest{PartySize: 4, BookingDate: tomorrow, BookingTime: "19:00"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(append([]model.Table(nil), tables...), nil)
				f.bookings.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]bookingModel.Booking{{TableID: 3, Status: bookingModel.StatusConfirmed, BookingTime: "12:00"}}, nil)
			},
			wantIDs: []int64{2, 1},
		},
		{
			name: "no matching tables is not an error",
			req:  dto.SearchTablesRequest{PartySize: 12, BookingDate: tomorrow},
			setupMock: func(f fixture) {
				f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Table{}, nil)
				f.bookings.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
			},
			wantIDs:  []int64{},
			notFound: true,
		},
		{
			name:      "past date",
			req:       dto.SearchTablesRequest{PartySize: 2, BookingDate: dayFromToday(-1)},
			setupMock: func(fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "date beyond booking window",
			req:       dto.SearchTablesRequest{PartySize: 2, BookingDate: dayFromToday(45)},
			setupMock: func(fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "zero party size",
			req:       dto.SearchTablesRequest{BookingDate: tomorrow},
			setupMock: func(fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "repository error",
			req:  dto.SearchTablesRequest{PartySize: 2, BookingDate: tomorrow},
			setupMock: func(f fixture) {
				f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Search(context.Background(), tt.req)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.notFound, res.NotFound)

			ids := []int64{}
			for _, table := range res.AvailableTables {
				ids = append(ids, table.TableID)
			}

			assert.Equal(t, tt.wantIDs, ids)

			if tt.notFound {
				assert.Equal(t, dto.NoTablesFoundMessage, res.Message)
			}
		})
	}
}

func TestTableService_ListByFloor(t *testing.T) {
	f := newFixture(t)
	date := dayFromToday(2)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
	f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Table{
		{ID: 4, Capacity: 2, Floor: 2, Status: model.StatusAvailable},
		{ID: 1, Capacity: 4, Floor: 1, Status: model.StatusAvailable},
		{ID: 2, Capacity: 4, Floor: 1, Status: model.StatusMaintenance},
	}, nil)
	f.bookings.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]bookingModel.Booking{{TableID: 4, Status: bookingModel.StatusPending}}, nil)

	groups, err := f.svc.ListByFloor(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Floor 1", groups[0].Name)
	require.Len(t, groups[0].Tables, 2)
	assert.Equal(t, dto.AvailabilityAvailable, groups[0].Tables[0].Status)
	assert.Equal(t, dto.AvailabilityBooked, groups[0].Tables[1].Status)
	assert.Equal(t, dto.AvailabilityBooked, groups[1].Tables[0].Status)
	assert.False(t, *groups[1].Tables[0].IsAvailableForBooking)
}

func TestTableService_ListByFloorInvalidDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListByFloor(context.Background(), "18-10-2026")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
}

func TestTableService_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "found",
			setupMock: func(f fixture) {
				f.cache.EXPECT().Get(gomock.Any(), "table:get:7", gomock.Any()).Return(errors.New("miss"))
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{ID: 7, Capacity: 4}, nil)
			},
		},
		{
			name: "soft deleted",
			setupMock: func(f fixture) {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{ID: 7, IsDeleted: true}, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "missing",
			setupMock: func(f fixture) {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Get(context.Background(), 7)
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(7), res.ID)
		})
	}
}

func TestTableService_Create(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, table model.Table) (int64, error) {
		assert.Equal(t, 1, table.Floor)
		assert.Equal(t, model.StatusAvailable, table.Status)

		return 11, nil
	})

	res, err := f.svc.Create(context.Background(), dto.CreateTableRequest{Capacity: 4, TableType: model.TypeWindow})
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.ID)
}

func TestTableService_UpdateAndDelete(t *testing.T) {
	t.Run("update missing table", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{}, nil)

		err := f.svc.Update(context.Background(), dto.UpdateTableRequest{Capacity: 6}, 5)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("update writes only provided fields", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{ID: 5}, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
			assert.Equal(t, 6, fields[model.FieldCapacity])
			assert.NotContains(t, fields, model.FieldTableType)

			return nil
		})

		assert.NoError(t, f.svc.Update(context.Background(), dto.UpdateTableRequest{Capacity: 6}, 5))
	})

	t.Run("delete is soft", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{ID: 5}, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
			assert.Equal(t, true, fields[model.FieldIsDeleted])

			return nil
		})

		assert.NoError(t, f.svc.Delete(context.Background(), 5))
	})
}

type fakeFile struct {
	*strings.Reader
}

func (fakeFile) Close() error { return nil }

func TestTableService_UploadImage(t *testing.T) {
	oldURL := "https://cdn.example.com/table/old.png"
	header := &multipart.FileHeader{Filename: "Window.PNG"}
	req := dto.UploadTableImageRequest{Image: header, ImageFile: fakeFile{strings.NewReader("png")}}

	t.Run("replaces previous image", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{ID: 5, ImageURL: &oldURL}, nil)
		f.s3.EXPECT().Upload(gomock.Any(), gomock.Cond(func(key string) bool {
			return strings.HasPrefix(key, "table/5/") && strings.HasSuffix(key, ".png")
		}), req.ImageFile, "").Return("https://cdn.example.com/table/5/new.png", nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.s3.EXPECT().KeyFromURL(oldURL).Return("table/old.png")
		f.s3.EXPECT().Delete(gomock.Any(), "table/old.png").Return(nil)

		res, err := f.svc.UploadImage(context.Background(), req, 5)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/table/5/new.png", *res.ImageURL)
	})

	t.Run("keeps foreign image urls", func(t *testing.T) {
		f := newFixture(t)
		foreign := "https://images.example.org/legacy.png"
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{ID: 5, ImageURL: &foreign}, nil)
		f.s3.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("https://cdn.example.com/table/5/new.png", nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.s3.EXPECT().KeyFromURL(foreign).Return("")

		_, err := f.svc.UploadImage(context.Background(), req, 5)
		require.NoError(t, err)
	})

	t.Run("removes upload when saving fails", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{ID: 5}, nil)

		var uploaded string

		f.s3.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, key string, _ io.Reader, _ string) (string, error) {
				uploaded = key

				return "https://cdn.example.com/" + key, nil
			})
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
		f.s3.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, key string) error {
			assert.Equal(t, uploaded, key)

			return nil
		})

		_, err := f.svc.UploadImage(context.Background(), req, 5)
		assert.Error(t, err)
	})
}
