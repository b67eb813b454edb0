package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"reservo/internal/domains/conversation/model"
	"reservo/internal/domains/conversation/timeexpr"
	tableModel "reservo/internal/domains/table/model"
	"reservo/shared/validator"
)

const (
	maxNameLength = 100
	maxNoteLength = 500
	maxFloor      = 50
	maxTableID    = 10000
)

var (
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	digitToken   = regexp.MustCompile(`\d+`)
)

// typeKeywords are the phrases that justify each table_type value.
var typeKeywords = map[string][]string{
	tableModel.TypeIndoor:  {"trong nhà", "bên trong", "indoor", "inside", "máy lạnh", "điều hòa", "điều hoà"},
	tableModel.TypeOutdoor: {"ngoài trời", "sân vườn", "ngoài sân", "ban công", "sân thượng", "outdoor", "outside", "terrace"},
	tableModel.TypePrivate: {"phòng riêng", "riêng tư", "phòng vip", "vip", "private"},
	tableModel.TypeBar:     {"quầy bar", "quầy", "bar"},
	tableModel.TypeBooth:   {"booth", "sofa", "ghế sofa", "ghế dài"},
	tableModel.TypeWindow:  {"cửa sổ", "cạnh cửa sổ", "gần cửa sổ", "window"},
	model.TableTypeAny: {
		"bất kỳ", "bất kì", "tùy", "tuỳ", "sao cũng được", "đâu cũng được", "chỗ nào cũng được",
		"bàn nào cũng được", "không quan trọng", "không yêu cầu", "any", "anywhere", "whatever", "no preference",
	},
}

var numberWords = buildNumberWords()

func buildNumberWords() map[string]int {
	units := []string{"một", "hai", "ba", "bốn", "năm", "sáu", "bảy", "tám", "chín"}
	english := []string{
		"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
		"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen", "twenty",
	}

	res := map[string]int{"mười": 10, "hai mươi": 20, "tư": 4, "bẩy": 7, "mười lăm": 15, "mười tư": 14, "đôi": 2, "cặp": 2}

	for i, word := range units {
		res[word] = i + 1

		if i > 0 {
			res["mười "+word] = 10 + i + 1
		}
	}

	for i, word := range english {
		res[word] = i + 1
	}

	return res
}

// Parse decodes the model output into raw key/value pairs. Code fences and
// text around the JSON object are tolerated.
func Parse(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)

	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object", ErrMalformedOutput)
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(raw[start : end+1])))
	decoder.UseNumber()

	values := map[string]any{}
	if err := decoder.Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	return values, nil
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)

		return v, v != ""
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}

		return int64(f), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)

		return n, err == nil
	default:
		return 0, false
	}
}

// numbersIn collects every number written in text as digits or as a number word up to twenty.
func numbersIn(text string) []int64 {
	res := []int64{}

	for _, token := range digitToken.FindAllString(text, -1) {
		if n, err := strconv.ParseInt(token, 10, 64); err == nil {
			res = append(res, n)
		}
	}

	for word, n := range numberWords {
		if timeexpr.ContainsWord(text, word) {
			res = append(res, int64(n))
		}
	}

	return res
}

// phoneGrounded ignores the separators guests put between digit groups.
func phoneGrounded(phone, text string) bool {
	return strings.Contains(validator.NormalizePhone(text), phone)
}

func typeGrounded(tableType, text string) bool {
	if timeexpr.ContainsWord(text, tableType) {
		return true
	}

	return slices.ContainsFunc(typeKeywords[tableType], func(keyword string) bool {
		return timeexpr.ContainsWord(text, keyword)
	})
}

func clock(value string) (string, bool) {
	t, err := time.Parse(timeexpr.ClockLayout, value)
	if err != nil {
		return "", false
	}

	return t.Format(timeexpr.ClockLayout), true
}

func inRange(n, low, high int64) bool {
	return n >= low && n <= high
}

// Ground keeps only the recognised, well-formed values that can be traced back
// to text, which holds everything the guest wrote. Dates and times count as
// traced when the time normaliser derives them from text or when they appear
// literally.
func Ground(values map[string]any, text string, now time.Time) model.Slots {
	res := model.Slots{}
	prepared := timeexpr.Prepare(text)
	numbers := numbersIn(timeexpr.Mask(text, now))

	if v, ok := asString(values[model.SlotBookingDate]); ok {
		_, err := time.Parse(timeexpr.DateLayout, v)
		if err == nil && (slices.Contains(timeexpr.Values(timeexpr.Dates(text, now)), v) || strings.Contains(prepared, v)) {
			res.BookingDate = &v
		}
	}

	if v, ok := asString(values[model.SlotBookingTime]); ok {
		if c, valid := clock(v); valid && (slices.Contains(timeexpr.Values(timeexpr.Times(text)), c) || strings.Contains(prepared, v)) {
			res.BookingTime = &c
		}
	}

	if v, ok := asInt(values[model.SlotPartySize]); ok && inRange(v, tableModel.MinCapacity, tableModel.MaxCapacity) && slices.Contains(numbers, v) {
		n := int(v)
		res.PartySize = &n
	}

	if v, ok := asInt(values[model.SlotFloor]); ok && inRange(v, 1, maxFloor) && slices.Contains(numbers, v) {
		n := int(v)
		res.Floor = &n
	}

	if v, ok := asInt(values[model.SlotTableID]); ok && inRange(v, 1, maxTableID) && slices.Contains(numbers, v) {
		res.TableID = &v
	}

	if v, ok := asString(values[model.SlotTableType]); ok {
		v = strings.ToUpper(v)
		if (tableModel.IsValidType(v) || v == model.TableTypeAny) && typeGrounded(v, prepared) {
			res.TableType = &v
		}
	}

	if v, ok := asString(values[model.SlotGuestName]); ok && len([]rune(v)) <= maxNameLength && timeexpr.ContainsWord(prepared, v) {
		res.GuestName = &v
	}

	if v, ok := asString(values[model.SlotGuestPhone]); ok {
		phone := validator.NormalizePhone(v)
		if validator.ValidateVar(phone, "phone") == nil && phoneGrounded(phone, text) {
			res.GuestPhone = &phone
		}
	}

	if v, ok := asString(values[model.SlotNote]); ok && len([]rune(v)) <= maxNoteLength && timeexpr.ContainsWord(prepared, v) {
		res.Note = &v
	}

	return res
}

// PreferStated overrides a grounded date or time with the one the guest names
// in utterance, provided utterance names exactly one. Values the model did not
// return are never filled in.
func PreferStated(slots model.Slots, utterance string, now time.Time) model.Slots {
	stated := timeexpr.Normalize(utterance, now)

	if slots.BookingDate != nil && !stated.Fallback && len(timeexpr.Dates(utterance, now)) == 1 {
		slots.BookingDate = &stated.Date
	}

	if slots.BookingTime != nil && stated.Time != "" && len(timeexpr.Times(utterance)) == 1 {
		slots.BookingTime = &stated.Time
	}

	return slots
}
