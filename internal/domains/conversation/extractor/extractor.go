package extractor

//go:generate go run go.uber.org/mock/mockgen -source=./extractor.go -destination=../mocks/extractor_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reservo/infras/llm"
	"reservo/infras/otel"
	"reservo/internal/domains/conversation/model"
	"reservo/internal/domains/conversation/timeexpr"
	"reservo/shared/constant"

	"github.com/rs/zerolog/log"
)

var ErrMalformedOutput = errors.New("extractor: malformed model output")

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "thứ hai",
	time.Tuesday:   "thứ ba",
	time.Wednesday: "thứ tư",
	time.Thursday:  "thứ năm",
	time.Friday:    "thứ sáu",
	time.Saturday:  "thứ bảy",
	time.Sunday:    "chủ nhật",
}

const systemPrompt = `Bạn là bộ trích xuất thông tin đặt bàn nhà hàng.
Chỉ trả về một đối tượng JSON với các khóa sau, bỏ qua khóa nào khách chưa nói rõ:
- booking_date: ngày đặt, định dạng YYYY-MM-DD
- booking_time: giờ đặt, định dạng HH:MM (24 giờ)
- party_size: số người, số nguyên 1-20
- table_type: một trong INDOOR, OUTDOOR, PRIVATE, BAR, BOOTH, WINDOW, hoặc ANY nếu khách không quan tâm
- floor: số tầng, số nguyên
- table_id: số bàn khách chọn, số nguyên
- guest_name: tên khách, đúng như khách viết
- guest_phone: số điện thoại, đúng như khách viết
- note: ghi chú, đúng như khách viết
Không đoán, không suy diễn, không dùng giá trị null hoặc chuỗi rỗng.
%s`

type Extractor interface {
	// Extract returns the slot values stated in utterance, using history for context.
	// It never returns a value that cannot be traced back to the guest's own words.
	Extract(ctx context.Context, history []model.Message, utterance string, now time.Time) (model.Slots, error)
}

type extractorImpl struct {
	llm  llm.LLM
	otel otel.Otel
}

func New(client llm.LLM, otel otel.Otel) Extractor {
	return &extractorImpl{
		llm:  client,
		otel: otel,
	}
}

// dateHints lists today and the next seven days so relative expressions resolve consistently.
func dateHints(now time.Time) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "Hôm nay là %s (%s).", weekdayNames[now.Weekday()], now.Format(timeexpr.DateLayout))

	for i := 1; i <= 7; i++ {
		day := now.AddDate(0, 0, i)

		label := weekdayNames[day.Weekday()]
		if i == 1 {
			label = "ngày mai, " + label
		}

		fmt.Fprintf(&builder, "\n%s = %s", label, day.Format(timeexpr.DateLayout))
	}

	return builder.String()
}

func toLLMHistory(history []model.Message) []llm.Message {
	res := make([]llm.Message, 0, len(history))

	for _, msg := range history {
		role := llm.RoleUser
		if msg.Role == model.RoleAssistant {
			role = llm.RoleModel
		}

		res = append(res, llm.Message{Role: role, Content: msg.Content})
	}

	return res
}

func (e *extractorImpl) Extract(ctx context.Context, history []model.Message, utterance string, now time.Time) (res model.Slots, err error) {
	ctx, scope := e.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".conversation.Extract")
	defer scope.End()
	defer scope.TraceIfError(err)

	if strings.TrimSpace(utterance) == constant.Empty {
		return res, nil
	}

	temperature := float32(0)

	raw, err := e.llm.Generate(ctx, llm.Request{
		System:      fmt.Sprintf(systemPrompt, dateHints(now)),
		History:     toLLMHistory(history),
		Prompt:      timeexpr.Annotate(utterance, now),
		JSON:        true,
		Temperature: &temperature,
	})
	if errors.Is(err, llm.ErrEmptyResponse) {
		// A blocked or empty candidate carries no slots; it is not a provider outage.
		return res, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to extract booking slots")

		return res, fmt.Errorf("failed to extract booking slots: %w", err)
	}

	values, err := Parse(raw)
	if err != nil {
		return res, err
	}

	turns := make([]string, 0, len(history)+1)

	for _, msg := range history {
		if msg.Role == model.RoleUser {
			turns = append(turns, msg.Content)
		}
	}

	turns = append(turns, utterance)

	res = PreferStated(Ground(values, strings.Join(turns, "\n"), now), utterance, now)

	scope.SetAttribute("conversation.slots", len(values))

	return res, nil
}
