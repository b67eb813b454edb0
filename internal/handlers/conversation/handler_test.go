package conversation_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"reservo/config"
	otelMocks "reservo/infras/otel/mocks"
	"reservo/internal/domains/conversation/mocks"
	"reservo/internal/domains/conversation/model/dto"
	"reservo/internal/handlers/conversation"
	"reservo/shared/failure"
)

func newServer(t *testing.T, svc *mocks.MockConversation) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Conversation.EventBuffer = 4

	handler := conversation.New(svc, cfg, otelMocks.NewOtel())

	mux := chi.NewRouter()
	handler.Router(mux)

	return mux
}

func readEvents(t *testing.T, body string) []dto.Event {
	t.Helper()

	var events []dto.Event

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var evt dto.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))

		events = append(events, evt)
	}

	return events
}

func TestChatStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockConversation(ctrl)
	server := newServer(t, svc)

	tests := []struct {
		name       string
		body       string
		setupMock  func()
		wantStatus int
		wantTypes  []string
	}{
		{
			name: "streams events in order",
			body: `{"user_input":"Cho mình đặt bàn 4 người tối mai"}`,
			setupMock: func() {
				svc.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req dto.ChatRequest, events chan<- dto.Event) error {
						events <- dto.Event{Type: dto.EventStart, Content: dto.SessionContent{SessionID: "s-1"}}
						events <- dto.Token("Bạn muốn đến lúc mấy giờ?")
						events <- dto.Event{Type: dto.EventEnd, Content: dto.SessionContent{SessionID: "s-1"}}

						return nil
					})
			},
			wantStatus: http.StatusOK,
			wantTypes:  []string{dto.EventStart, dto.EventToken, dto.EventEnd},
		},
		{
			name: "service error after events",
			body: `{"user_input":"xin chào","session_id":"0b6f1c0e-8a53-4d8f-9d51-0c1b8f3c2a11"}`,
			setupMock: func() {
				svc.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req dto.ChatRequest, events chan<- dto.Event) error {
						events <- dto.Error("Hệ thống đang bận, vui lòng thử lại sau.")

						return assert.AnError
					})
			},
			wantStatus: http.StatusOK,
			wantTypes:  []string{dto.EventError},
		},
		{
			name:       "missing input",
			body:       `{"user_input":""}`,
			setupMock:  func() {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad session id",
			body:       `{"user_input":"hi","session_id":"not-a-uuid"}`,
			setupMock:  func() {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			req := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			server.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus != http.StatusOK {
				return
			}

			assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
			assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

			var types []string
			for _, evt := range readEvents(t, rec.Body.String()) {
				types = append(types, evt.Type)
			}

			assert.Equal(t, tt.wantTypes, types)
		})
	}
}

func TestChatStream_ClientGone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockConversation(ctrl)
	server := newServer(t, svc)

	seen := make(chan error, 1)

	svc.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ dto.ChatRequest, _ chan<- dto.Event) error {
			<-ctx.Done()
			seen <- ctx.Err()

			return ctx.Err()
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(`{"user_input":"hi"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	assert.ErrorIs(t, <-seen, context.Canceled)
}

func TestEndSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockConversation(ctrl)
	server := newServer(t, svc)

	const id = "0b6f1c0e-8a53-4d8f-9d51-0c1b8f3c2a11"

	tests := []struct {
		name       string
		id         string
		setupMock  func()
		wantStatus int
	}{
		{
			name: "ended",
			id:   id,
			setupMock: func() {
				svc.EXPECT().End(gomock.Any(), id).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "turn in progress",
			id:   id,
			setupMock: func() {
				svc.EXPECT().End(gomock.Any(), id).Return(failure.Conflict("busy"))
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "bad session id",
			id:         "not-a-uuid",
			setupMock:  func() {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/chat/sessions/"+tt.id, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
