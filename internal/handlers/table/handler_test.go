package table_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	otelMocks "reservo/infras/otel/mocks"
	"reservo/internal/domains/table/mocks"
	"reservo/internal/domains/table/model/dto"
	"reservo/internal/handlers/table"
	"reservo/shared/failure"
)

func newServer(svc *mocks.MockTableService) http.Handler {
	handler := table.New(svc, otelMocks.NewOtel())

	mux := chi.NewRouter()
	handler.Router(mux)

	return mux
}

func TestHandler_SearchTables(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockTableService(ctrl)
	server := newServer(svc)

	tests := []struct {
		name       string
		body       string
		setupMock  func()
		wantStatus int
	}{
		{
			name: "found",
			body: `{"party_size":4,"booking_date":"2026-10-18","booking_time":"19:00","table_type":"ANY"}`,
			setupMock: func() {
				svc.EXPECT().Search(gomock.Any(), dto.SearchTablesRequest{
					PartySize: 4, BookingDate: "2026-10-18", BookingTime: "19:00", TableType: "ANY",
				}).Return(dto.SearchTablesResponse{AvailableTables: []dto.TableSummary{{TableID: 5, Capacity: 4}}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown table type",
			body:       `{"party_size":4,"booking_date":"2026-10-18","table_type":"ROOFTOP"}`,
			setupMock:  func() {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad time",
			body:       `{"party_size":4,"booking_date":"2026-10-18","booking_time":"7pm"}`,
			setupMock:  func() {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tables/search", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_GetTables(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockTableService(ctrl)
	server := newServer(svc)

	svc.EXPECT().ListByFloor(gomock.Any(), "2026-10-18").Return([]dto.FloorGroup{{Name: "Floor 1", Floor: 1}}, nil)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tables?date=2026-10-18", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Floor 1")
}

func TestHandler_GetTableByID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockTableService(ctrl)
	server := newServer(svc)

	tests := []struct {
		name       string
		target     string
		setupMock  func()
		wantStatus int
	}{
		{
			name:   "found",
			target: "/tables/5",
			setupMock: func() {
				svc.EXPECT().Get(gomock.Any(), int64(5)).Return(dto.TableResponse{ID: 5}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "missing",
			target: "/tables/99",
			setupMock: func() {
				svc.EXPECT().Get(gomock.Any(), int64(99)).Return(dto.TableResponse{}, failure.NotFound("table not found"))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "not a number",
			target:     "/tables/abc",
			setupMock:  func() {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_UploadImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockTableService(ctrl)
	server := newServer(svc)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "table.png")
	require.NoError(t, err)

	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	svc.EXPECT().UploadImage(gomock.Any(), gomock.Any(), int64(5)).
		DoAndReturn(func(_ any, req dto.UploadTableImageRequest, _ int64) (dto.TableResponse, error) {
			assert.Equal(t, "table.png", req.Image.Filename)

			url := "https://cdn.example.com/tables/5.png"

			return dto.TableResponse{ID: 5, ImageURL: &url}, nil
		})

	req := httptest.NewRequest(http.MethodPut, "/tables/5/image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "5.png")
}
