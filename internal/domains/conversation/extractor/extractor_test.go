package extractor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"reservo/infras/llm"
	llmMocks "reservo/infras/llm/mocks"
	"reservo/infras/otel/mocks"
	"reservo/internal/domains/conversation/extractor"
	"reservo/internal/domains/conversation/model"
)

// Saturday afternoon in Ho Chi Minh City.
var now = time.Date(2026, 10, 17, 15, 0, 0, 0, time.FixedZone("ICT", 7*60*60))

func ptr[T any](v T) *T {
	return &v
}

func TestGround(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		values string
		want   model.Slots
	}{
		{
			name:   "core slots stated in one message",
			text:   "mai 7h tối cho 4 người, bàn ngoài trời",
			values: `{"booking_date":"2026-10-18","booking_time":"19:00","party_size":4,"table_type":"OUTDOOR"}`,
			want: model.Slots{
				BookingDate: ptr("2026-10-18"),
				BookingTime: ptr("19:00"),
				PartySize:   ptr(4),
				TableType:   ptr("OUTDOOR"),
			},
		},
		{
			name:   "intent without details yields nothing",
			text:   "tôi muốn đặt bàn",
			values: `{"booking_date":"2026-10-17","booking_time":"19:00","party_size":2,"table_type":"INDOOR"}`,
			want:   model.Slots{},
		},
		{
			name:   "guest details written verbatim",
			text:   "Tên mình là Nguyễn Văn An, sđt 0901 234 567",
			values: `{"guest_name":"Nguyễn Văn An","guest_phone":"0901 234 567"}`,
			want:   model.Slots{GuestName: ptr("Nguyễn Văn An"), GuestPhone: ptr("0901234567")},
		},
		{
			name:   "invented guest details",
			text:   "đặt bàn giúp tôi",
			values: `{"guest_name":"Trần Bình","guest_phone":"0987654321"}`,
			want:   model.Slots{},
		},
		{
			name:   "unknown keys, nulls and empty strings",
			text:   "cho 3 người",
			values: `{"foo":"bar","note":null,"guest_name":"","party_size":3}`,
			want:   model.Slots{PartySize: ptr(3)},
		},
		{
			name:   "party size out of range",
			text:   "bàn cho 25 người",
			values: `{"party_size":25}`,
			want:   model.Slots{},
		},
		{
			name:   "fractional party size",
			text:   "2 người rưỡi",
			values: `{"party_size":2.5}`,
			want:   model.Slots{},
		},
		{
			name:   "vietnamese number word",
			text:   "bàn cho hai người",
			values: `{"party_size":2}`,
			want:   model.Slots{PartySize: ptr(2)},
		},
		{
			name:   "english number word",
			text:   "a table for six please",
			values: `{"party_size":"6"}`,
			want:   model.Slots{PartySize: ptr(6)},
		},
		{
			name:   "no preference on area",
			text:   "bàn nào cũng được",
			values: `{"table_type":"any"}`,
			want:   model.Slots{TableType: ptr("ANY")},
		},
		{
			name:   "table type not mentioned",
			text:   "cho 2 người",
			values: `{"party_size":2,"table_type":"PRIVATE"}`,
			want:   model.Slots{PartySize: ptr(2)},
		},
		{
			name:   "weekday resolved against now",
			text:   "thứ bảy nhé",
			values: `{"booking_date":"2026-10-24"}`,
			want:   model.Slots{BookingDate: ptr("2026-10-24")},
		},
		{
			name:   "date guessed as today",
			text:   "thứ bảy nhé",
			values: `{"booking_date":"2026-10-17"}`,
			want:   model.Slots{},
		},
		{
			name:   "malformed date and time",
			text:   "ngày 32/13 lúc 25:00",
			values: `{"booking_date":"2026-13-32","booking_time":"25:00"}`,
			want:   model.Slots{},
		},
		{
			name:   "literal clock and floor",
			text:   "lúc 19:30 ở tầng 2, bàn số 12",
			values: `{"booking_time":"19:30","floor":2,"table_id":12}`,
			want:   model.Slots{BookingTime: ptr("19:30"), Floor: ptr(2), TableID: ptr(int64(12))},
		},
		{
			name:   "note",
			text:   "ghi chú: có trẻ em đi cùng",
			values: `{"note":"có trẻ em đi cùng"}`,
			want:   model.Slots{Note: ptr("có trẻ em đi cùng")},
		},
		{
			name:   "clock and weekday digits are not counts",
			text:   "thứ 7, 8h tối",
			values: `{"booking_date":"2026-10-24","booking_time":"20:00","party_size":8,"floor":7}`,
			want:   model.Slots{BookingDate: ptr("2026-10-24"), BookingTime: ptr("20:00")},
		},
		{
			name:   "party size next to a clock",
			text:   "19h cho 4 người",
			values: `{"booking_time":"19:00","party_size":19,"table_id":4}`,
			want:   model.Slots{BookingTime: ptr("19:00"), TableID: ptr(int64(4))},
		},
		{
			name:   "guest called Mai",
			text:   "tên mình là Mai",
			values: `{"guest_name":"Mai","booking_date":"2026-10-18"}`,
			want:   model.Slots{GuestName: ptr("Mai")},
		},
		{
			name:   "name only part of a word",
			text:   "tên tôi là Anh",
			values: `{"guest_name":"An"}`,
			want:   model.Slots{},
		},
		{
			name:   "note cut mid word",
			text:   "ghi chú: có trẻ em",
			values: `{"note":"trẻ e"}`,
			want:   model.Slots{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := extractor.Parse(tt.values)
			require.NoError(t, err)

			assert.Equal(t, tt.want, extractor.Ground(values, tt.text, now))
		})
	}
}

func TestPreferStated(t *testing.T) {
	tests := []struct {
		name      string
		slots     model.Slots
		utterance string
		want      model.Slots
	}{
		{
			name:      "date named in this message wins",
			slots:     model.Slots{BookingDate: ptr("2026-10-18")},
			utterance: "à không, thứ bảy nhé",
			want:      model.Slots{BookingDate: ptr("2026-10-24")},
		},
		{
			name:      "two dates named",
			slots:     model.Slots{BookingDate: ptr("2026-10-24")},
			utterance: "không phải ngày mai mà là thứ bảy",
			want:      model.Slots{BookingDate: ptr("2026-10-24")},
		},
		{
			name:      "no date named",
			slots:     model.Slots{BookingDate: ptr("2026-10-18")},
			utterance: "4 người",
			want:      model.Slots{BookingDate: ptr("2026-10-18")},
		},
		{
			name:      "time corrected",
			slots:     model.Slots{BookingTime: ptr("08:00")},
			utterance: "8h tối",
			want:      model.Slots{BookingTime: ptr("20:00")},
		},
		{
			name:      "nothing returned is not filled",
			slots:     model.Slots{PartySize: ptr(2)},
			utterance: "thứ bảy 7h tối",
			want:      model.Slots{PartySize: ptr(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractor.PreferStated(tt.slots, tt.utterance, now))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{name: "plain object", raw: `{"party_size":2}`, wantLen: 1},
		{name: "fenced", raw: "```json\n{\"party_size\":2,\"floor\":1}\n```", wantLen: 2},
		{name: "prose around", raw: `Kết quả: {"party_size":2} xong`, wantLen: 1},
		{name: "empty object", raw: `{}`, wantLen: 0},
		{name: "not json", raw: "xin lỗi, tôi không hiểu", wantErr: true},
		{name: "broken json", raw: `{"party_size":}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := extractor.Parse(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, extractor.ErrMalformedOutput)

				return
			}

			require.NoError(t, err)
			assert.Len(t, values, tt.wantLen)
		})
	}
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	history := []model.Message{
		{Role: model.RoleUser, Content: "mai mình đi 4 người"},
		{Role: model.RoleAssistant, Content: "Bạn muốn đặt lúc mấy giờ?"},
	}

	t.Run("grounds against earlier turns", func(t *testing.T) {
		client := llmMocks.NewMockLLM(gomock.NewController(t))
		ext := extractor.New(client, mocks.NewOtel())

		client.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req llm.Request) (string, error) {
			assert.True(t, req.JSON)
			require.NotNil(t, req.Temperature)
			assert.Zero(t, *req.Temperature)
			assert.Contains(t, req.System, "2026-10-18")
			require.Len(t, req.History, 2)
			assert.Equal(t, llm.RoleModel, req.History[1].Role)

			return `{"booking_date":"2026-10-18","party_size":4,"booking_time":"19:00","guest_name":"Lan"}`, nil
		})

		slots, err := ext.Extract(ctx, history, "7h tối", now)
		require.NoError(t, err)

		assert.Equal(t, model.Slots{
			BookingDate: ptr("2026-10-18"),
			BookingTime: ptr("19:00"),
			PartySize:   ptr(4),
		}, slots)
	})

	t.Run("annotates relative dates", func(t *testing.T) {
		client := llmMocks.NewMockLLM(gomock.NewController(t))
		ext := extractor.New(client, mocks.NewOtel())

		client.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req llm.Request) (string, error) {
			assert.Contains(t, req.Prompt, "2026-10-24")

			return `{"booking_date":"2026-10-24"}`, nil
		})

		slots, err := ext.Extract(ctx, nil, "thứ bảy", now)
		require.NoError(t, err)
		assert.Equal(t, ptr("2026-10-24"), slots.BookingDate)
	})

	t.Run("date changed in the latest message", func(t *testing.T) {
		client := llmMocks.NewMockLLM(gomock.NewController(t))
		ext := extractor.New(client, mocks.NewOtel())

		client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(`{"booking_date":"2026-10-18","party_size":4}`, nil)

		slots, err := ext.Extract(ctx, history, "à không, thứ bảy nhé", now)
		require.NoError(t, err)

		assert.Equal(t, model.Slots{BookingDate: ptr("2026-10-24"), PartySize: ptr(4)}, slots)
	})

	t.Run("malformed output", func(t *testing.T) {
		client := llmMocks.NewMockLLM(gomock.NewController(t))
		ext := extractor.New(client, mocks.NewOtel())

		client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("không rõ", nil)

		_, err := ext.Extract(ctx, history, "ừ", now)
		require.ErrorIs(t, err, extractor.ErrMalformedOutput)
	})

	t.Run("empty reply counts as malformed", func(t *testing.T) {
		client := llmMocks.NewMockLLM(gomock.NewController(t))
		ext := extractor.New(client, mocks.NewOtel())

		client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", llm.ErrEmptyResponse)

		_, err := ext.Extract(ctx, history, "ừ", now)
		require.ErrorIs(t, err, extractor.ErrMalformedOutput)
		require.ErrorIs(t, err, llm.ErrEmptyResponse)
		assert.NotErrorIs(t, err, llm.ErrRateLimited)
	})

	t.Run("provider error", func(t *testing.T) {
		client := llmMocks.NewMockLLM(gomock.NewController(t))
		ext := extractor.New(client, mocks.NewOtel())

		client.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("", llm.ErrRateLimited)

		_, err := ext.Extract(ctx, history, "mai nhé", now)
		require.ErrorIs(t, err, llm.ErrRateLimited)
	})

	t.Run("blank utterance skips the model", func(t *testing.T) {
		client := llmMocks.NewMockLLM(gomock.NewController(t))
		ext := extractor.New(client, mocks.NewOtel())

		slots, err := ext.Extract(ctx, history, "   ", now)
		require.NoError(t, err)
		assert.True(t, slots.IsEmpty())
	})
}
