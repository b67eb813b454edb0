package machine

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"reservo/internal/domains/conversation/timeexpr"
	tableDto "reservo/internal/domains/table/model/dto"
)

var (
	affirmatives = []string{
		"xác nhận", "đúng rồi", "đúng vậy", "đúng", "chính xác", "chuẩn", "đồng ý", "chốt", "đặt",
		"được rồi", "được", "ok", "oke", "okay", "ổn", "có", "vâng", "dạ", "ừ", "ừm", "uh", "yes", "yep", "yeah",
		"sure", "confirm", "correct",
	}
	negations = []string{
		"không", "ko", "k", "chưa", "sai", "đổi", "khoan", "hủy", "huỷ", "thôi", "no", "not", "nope", "wrong",
		"cancel", "change",
	}
	fillers = []string{
		"ạ", "nhé", "nha", "nhá", "nhen", "luôn", "đi", "rồi", "thế", "vậy", "em", "anh", "chị", "bạn", "mình",
		"please", "giúp", "giùm", "à", "ơi", "thì", "là",
	}
	emptyNotes = []string{
		"không", "ko", "k", "không có", "không có gì", "không cần", "không cần ghi chú", "không ghi chú",
		"không có ghi chú", "không có yêu cầu", "không yêu cầu", "chưa", "thôi", "no", "none", "nope", "nothing",
		"không có gì đặc biệt", "bỏ qua", "skip",
	}
	newBookingWords = []string{"đặt bàn", "đặt thêm", "đặt chỗ", "bàn mới", "đặt lại", "book", "booking", "reservation"}
	headcountWords  = []string{"người", "khách", "people", "person", "persons", "guests", "pax"}
)

// words lower-cases text, drops punctuation and filler words.
func words(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			return r
		}

		return ' '
	}, timeexpr.Prepare(text))

	return slices.DeleteFunc(strings.Fields(cleaned), func(word string) bool {
		return slices.Contains(fillers, word)
	})
}

// consumedBy reports whether tokens are made up entirely of phrases.
func consumedBy(tokens []string, phrases []string) bool {
	if len(tokens) == 0 {
		return false
	}

	for len(tokens) > 0 {
		matched := 0

		for _, phrase := range phrases {
			parts := strings.Fields(phrase)
			if len(parts) > matched && len(parts) <= len(tokens) && slices.Equal(tokens[:len(parts)], parts) {
				matched = len(parts)
			}
		}

		if matched == 0 {
			return false
		}

		tokens = tokens[matched:]
	}

	return true
}

// IsAffirmative accepts only replies built from the fixed confirmation words.
// Any negation word rejects the reply.
func IsAffirmative(text string) bool {
	tokens := words(text)

	if slices.ContainsFunc(tokens, func(word string) bool { return slices.Contains(negations, word) }) {
		return false
	}

	return consumedBy(tokens, affirmatives)
}

// IsNegative reports a plain "no" style reply.
func IsNegative(text string) bool {
	tokens := words(text)

	return consumedBy(tokens, emptyNotes)
}

func wantsNewBooking(text string) bool {
	return slices.ContainsFunc(newBookingWords, func(phrase string) bool {
		return timeexpr.ContainsWord(text, phrase)
	})
}

// chosenTable reads a reply such as "bàn 5" or "số 5" as a pick among candidates.
// Replies mentioning a head count are left to the extractor.
func chosenTable(text string, candidates []tableDto.TableSummary) (int64, bool) {
	tokens := words(text)

	if slices.ContainsFunc(tokens, func(word string) bool { return slices.Contains(headcountWords, word) }) {
		return 0, false
	}

	var numbers []int64

	for _, token := range tokens {
		if n, err := strconv.ParseInt(token, 10, 64); err == nil {
			numbers = append(numbers, n)
		}
	}

	if len(numbers) != 1 {
		return 0, false
	}

	_, ok := findCandidate(candidates, numbers[0])

	return numbers[0], ok
}

func findCandidate(candidates []tableDto.TableSummary, id int64) (tableDto.TableSummary, bool) {
	idx := slices.IndexFunc(candidates, func(c tableDto.TableSummary) bool { return c.TableID == id })
	if idx < 0 {
		return tableDto.TableSummary{}, false
	}

	return candidates[idx], true
}
