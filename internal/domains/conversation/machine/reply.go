package machine

import (
	"fmt"
	"strings"
	"time"

	"reservo/internal/domains/conversation/model"
	"reservo/internal/domains/conversation/timeexpr"
	tableDto "reservo/internal/domains/table/model/dto"
	tableModel "reservo/internal/domains/table/model"
)

const displayDateLayout = "02/01/2006"

var typeLabels = map[string]string{
	tableModel.TypeIndoor:  "trong nhà",
	tableModel.TypeOutdoor: "ngoài trời",
	tableModel.TypePrivate: "phòng riêng",
	tableModel.TypeBar:     "quầy bar",
	tableModel.TypeBooth:   "ghế sofa",
	tableModel.TypeWindow:  "cạnh cửa sổ",
	model.TableTypeAny:     "bất kỳ",
}

var questions = map[string]string{
	model.SlotBookingDate: "Bạn muốn đặt bàn vào ngày nào?",
	model.SlotBookingTime: "Bạn dự định đến lúc mấy giờ?",
	model.SlotPartySize:   "Bạn đi bao nhiêu người?",
	model.SlotArea: "Bạn muốn ngồi khu vực nào (trong nhà, ngoài trời, phòng riêng, quầy bar, ghế sofa, cạnh cửa sổ) " +
		"hoặc tầng mấy? Nếu không có yêu cầu, bạn cứ nói \"bàn nào cũng được\".",
	model.SlotNote: "Bạn có ghi chú gì thêm cho nhà hàng không (ví dụ: sinh nhật, ghế trẻ em)? " +
		"Nếu không, bạn trả lời \"không\" nhé.",
}

func displayDate(date string) string {
	day, err := time.Parse(timeexpr.DateLayout, date)
	if err != nil {
		return date
	}

	return day.Format(displayDateLayout)
}

func typeLabel(tableType string) string {
	if label, ok := typeLabels[tableType]; ok {
		return label
	}

	return strings.ToLower(tableType)
}

func describeTable(table tableDto.TableSummary) string {
	return fmt.Sprintf("bàn số %d (%s, tầng %d, %d chỗ)", table.TableID, typeLabel(table.TableType), table.Floor, table.Capacity)
}

func tableUnavailable(id int64) string {
	return fmt.Sprintf("Bàn số %d không có trong danh sách bàn còn trống.", id)
}

func ask(slots []string) string {
	switch {
	case len(slots) == 2:
		return "Cho mình xin tên và số điện thoại của bạn để giữ bàn nhé."
	case len(slots) == 1 && slots[0] == model.SlotGuestName:
		return "Cho mình xin tên của bạn nhé."
	case len(slots) == 1 && slots[0] == model.SlotGuestPhone:
		return "Cho mình xin số điện thoại liên hệ của bạn nhé."
	case len(slots) == 1:
		return questions[slots[0]]
	default:
		return "Bạn cần mình hỗ trợ gì thêm?"
	}
}

// Summary lists everything that will be booked.
func Summary(s model.Session) string {
	var builder strings.Builder

	note := s.Slots.NoteText()
	if note == "" {
		note = "không có"
	}

	builder.WriteString("Mình xác nhận lại thông tin đặt bàn:\n")
	fmt.Fprintf(&builder, "- Ngày: %s\n", displayDate(s.Slots.Date()))
	fmt.Fprintf(&builder, "- Giờ: %s\n", s.Slots.Time())
	fmt.Fprintf(&builder, "- Số người: %d\n", s.Slots.Party())

	if s.Selected != nil {
		fmt.Fprintf(&builder, "- Bàn: %s\n", describeTable(*s.Selected))
	}

	fmt.Fprintf(&builder, "- Tên: %s\n", s.Slots.Name())
	fmt.Fprintf(&builder, "- Số điện thoại: %s\n", s.Slots.Phone())
	fmt.Fprintf(&builder, "- Ghi chú: %s\n", note)
	builder.WriteString("Bạn trả lời \"xác nhận\" để hoàn tất đặt bàn, hoặc cho mình biết thông tin cần sửa.")

	return builder.String()
}

func choose(candidates []tableDto.TableSummary) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "Hiện còn %d bàn phù hợp:\n", len(candidates))

	for _, table := range candidates {
		fmt.Fprintf(&builder, "- %s\n", describeTable(table))
	}

	builder.WriteString("Bạn muốn chọn bàn số mấy?")

	return builder.String()
}

func noTables(criteria tableDto.SearchTablesRequest) string {
	when := displayDate(criteria.BookingDate)
	if criteria.BookingTime != "" {
		when = criteria.BookingTime + " ngày " + when
	}

	return fmt.Sprintf("Rất tiếc, không còn bàn trống phù hợp cho %d người vào %s. "+
		"Bạn có muốn đổi ngày, giờ hoặc khu vực khác không?", criteria.PartySize, when)
}

// Reply renders the directive as the assistant's message. It is the wording
// used whenever generated text is unavailable.
func Reply(s model.Session, d Directive) string {
	var body string

	switch d.Action {
	case ActionAsk:
		body = ask(d.Ask)
	case ActionAskCorrection:
		body = "Bạn muốn thay đổi thông tin nào ạ?"
	case ActionSearch:
		body = "Mình đang kiểm tra bàn trống, bạn chờ chút nhé."
	case ActionSearchFailed:
		body = "Mình chưa kiểm tra được bàn trống lúc này. Bạn vui lòng thử lại sau giây lát nhé."
	case ActionNoTables:
		body = noTables(d.Criteria)
	case ActionPropose:
		body = fmt.Sprintf("Mình tìm được %s còn trống. Bạn có muốn đặt bàn này không?", describeTable(d.Candidates[0]))
	case ActionChoose:
		body = choose(d.Candidates)
	case ActionSummarize:
		body = Summary(s)
	case ActionBook:
		body = "Mình đang đặt bàn cho bạn, bạn chờ chút nhé."
	case ActionBooked:
		body = d.Message
	case ActionBookingFailed:
		body = "Chưa đặt được bàn: " + d.Message + " Bạn có thể trả lời \"xác nhận\" để thử lại hoặc cho mình biết thông tin cần sửa."
	case ActionDone:
		body = fmt.Sprintf("Bàn của bạn đã được đặt với mã %s. Nếu muốn đặt thêm bàn, bạn cứ nhắn \"đặt bàn\" nhé.", s.BookingCode)
	}

	if d.Notice == "" {
		return body
	}

	return d.Notice + "\n" + body
}
