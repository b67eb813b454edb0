// Package timeexpr resolves Vietnamese and English date and time expressions
// against a fixed reference time. Every function is pure in its inputs.
package timeexpr

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

type Kind string

const (
	KindRelative Kind = "relative"
	KindWeekday  Kind = "weekday"
	KindWeekend  Kind = "weekend"
	KindExplicit Kind = "explicit"
	KindClock    Kind = "clock"
	KindFallback Kind = "fallback"

	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	hoursPerHalfDay = 12
	halfHour        = 30
)

// Result is the first date and time found in a text. Fallback is set when no
// date expression was recognised and Date holds the reference day instead.
type Result struct {
	Date     string
	Time     string
	Kind     Kind
	Fallback bool
}

// Match is one recognised expression. Value is YYYY-MM-DD for dates and HH:MM for times.
type Match struct {
	Phrase string
	Value  string
	Kind   Kind
	start  int
	end    int
}

type phrase struct {
	text    string
	kind    Kind
	resolve func(now time.Time) time.Time
}

func offset(days int) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		return now.AddDate(0, 0, days)
	}
}

// nextWeekday never returns now itself: the same weekday rolls a full week.
func nextWeekday(day time.Weekday) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		diff := (int(day) - int(now.Weekday()) + 7) % 7
		if diff == 0 {
			diff = 7
		}

		return now.AddDate(0, 0, diff)
	}
}

func group(kind Kind, resolve func(time.Time) time.Time, texts ...string) []phrase {
	res := make([]phrase, len(texts))
	for i, text := range texts {
		res[i] = phrase{text: text, kind: kind, resolve: resolve}
	}

	return res
}

var phrases = slices.Concat(
	group(KindRelative, offset(0), "hôm nay", "bữa nay", "tối nay", "trưa nay", "chiều nay", "sáng nay", "nay", "hom nay", "toi nay", "today", "tonight"),
	group(KindRelative, offset(1), "ngày mai", "mai", "ngay mai", "tomorrow"),
	group(KindRelative, offset(-1), "hôm qua", "hom qua", "yesterday"),
	group(KindRelative, offset(2), "ngày kia", "ngày mốt", "mốt", "ngay kia", "day after tomorrow"),
	group(KindWeekday, nextWeekday(time.Monday), "thứ hai", "thứ 2", "thu hai", "thu 2", "t2", "monday"),
	group(KindWeekday, nextWeekday(time.Tuesday), "thứ ba", "thứ 3", "thu ba", "thu 3", "t3", "tuesday"),
	group(KindWeekday, nextWeekday(time.Wednesday), "thứ tư", "thứ 4", "thu tu", "thu 4", "t4", "wednesday"),
	group(KindWeekday, nextWeekday(time.Thursday), "thứ năm", "thứ 5", "thu nam", "thu 5", "t5", "thursday"),
	group(KindWeekday, nextWeekday(time.Friday), "thứ sáu", "thứ 6", "thu sau", "thu 6", "t6", "friday"),
	group(KindWeekday, nextWeekday(time.Saturday), "thứ bảy", "thứ bẩy", "thứ 7", "thu bay", "thu 7", "t7", "saturday"),
	group(KindWeekday, nextWeekday(time.Sunday), "chủ nhật", "chu nhat", "cn", "sunday"),
	group(KindWeekend, nextWeekday(time.Saturday), "cuối tuần", "cuoi tuan", "weekend"),
)

var (
	reISODate = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	reDMY     = regexp.MustCompile(`(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})`)
	reDM      = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
	reVNDate  = regexp.MustCompile(`ngày\s+(\d{1,2})\s+tháng\s+(\d{1,2})(?:\s+năm\s+(\d{4}))?`)

	reClock = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	reHour  = regexp.MustCompile(`(\d{1,2})h(\d{2})?`)
	reGio   = regexp.MustCompile(`(\d{1,2})\s*giờ(?:\s*(\d{1,2})(?:\s*phút)?|\s*(rưỡi))?`)
	reAmPm  = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
)

// nameCues come right before a given name, as in "tên là Mai" or "chị Mai".
var nameCues = []string{"tên", "chị", "cô", "bà", "dì"}

var periods = []string{"sáng", "trưa", "chiều", "tối", "đêm", "am", "pm"}

// Prepare lower-cases text in NFC so composed and decomposed input match alike.
func Prepare(text string) string {
	return norm.NFC.String(strings.ToLower(norm.NFC.String(text)))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func bounded(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}

	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}

	return true
}

func findPhrase(text, needle string) []int {
	var res []int

	for from := 0; from < len(text); {
		idx := strings.Index(text[from:], needle)
		if idx < 0 {
			break
		}

		start := from + idx
		if bounded(text, start, start+len(needle)) {
			res = append(res, start)
		}

		from = start + len(needle)
	}

	return res
}

// ContainsWord reports whether word occurs in text as a whole word or phrase.
// Both sides are compared after Prepare.
func ContainsWord(text, word string) bool {
	word = Prepare(strings.TrimSpace(word))
	if word == "" {
		return false
	}

	return len(findPhrase(Prepare(text), word)) > 0
}

// namedAt reports whether the word at start follows a name cue.
func namedAt(text string, start int) bool {
	before := strings.Fields(text[:start])
	if len(before) == 0 {
		return false
	}

	word := func(i int) string {
		if i < 0 {
			return ""
		}

		return strings.Trim(before[i], ",.!?:")
	}

	last := len(before) - 1
	if word(last) != "là" {
		return slices.Contains(nameCues, word(last))
	}

	// "tên là Mai", "tên tôi là Mai", "tên của mình là Mai"
	for i := last - 1; i >= last-3; i-- {
		if word(i) == "tên" {
			return true
		}
	}

	return false
}

// leftmostLongest keeps non-overlapping matches, preferring earlier then longer ones.
func leftmostLongest(matches []Match) []Match {
	slices.SortStableFunc(matches, func(a, b Match) int {
		if a.start != b.start {
			return a.start - b.start
		}

		return (b.end - b.start) - (a.end - a.start)
	})

	res := []Match{}
	last := -1

	for _, m := range matches {
		if m.start < last {
			continue
		}

		res = append(res, m)
		last = m.end
	}

	return res
}

func validDate(year, month, day int) (time.Time, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	return t, t.Year() == year && int(t.Month()) == month && t.Day() == day
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)

	return n
}

// Dates returns every date expression in text, in reading order.
func Dates(text string, now time.Time) []Match {
	text = Prepare(text)
	matches := []Match{}

	for _, p := range phrases {
		for _, start := range findPhrase(text, p.text) {
			// Mai is also a given name.
			if p.text == "mai" && namedAt(text, start) {
				continue
			}

			matches = append(matches, Match{
				Phrase: p.text,
				Value:  p.resolve(now).Format(DateLayout),
				Kind:   p.kind,
				start:  start,
				end:    start + len(p.text),
			})
		}
	}

	explicit := func(re *regexp.Regexp, ymd func(groups []string) (int, int, int)) {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if !bounded(text, loc[0], loc[1]) {
				continue
			}

			groups := make([]string, len(loc)/2)
			for i := range groups {
				if loc[2*i] >= 0 {
					groups[i] = text[loc[2*i]:loc[2*i+1]]
				}
			}

			year, month, day := ymd(groups)

			date, ok := validDate(year, month, day)
			if !ok {
				continue
			}

			matches = append(matches, Match{
				Phrase: groups[0],
				Value:  date.Format(DateLayout),
				Kind:   KindExplicit,
				start:  loc[0],
				end:    loc[1],
			})
		}
	}

	// A day and month without a year is the next such day from now.
	withinYear := func(day, month int, year string) (int, int, int) {
		if year != "" {
			return atoi(year), month, day
		}

		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if candidate, ok := validDate(now.Year(), month, day); ok && candidate.Before(today) {
			return now.Year() + 1, month, day
		}

		return now.Year(), month, day
	}

	explicit(reISODate, func(g []string) (int, int, int) { return atoi(g[1]), atoi(g[2]), atoi(g[3]) })
	explicit(reDMY, func(g []string) (int, int, int) { return atoi(g[3]), atoi(g[2]), atoi(g[1]) })
	explicit(reDM, func(g []string) (int, int, int) { return withinYear(atoi(g[1]), atoi(g[2]), "") })
	explicit(reVNDate, func(g []string) (int, int, int) { return withinYear(atoi(g[1]), atoi(g[2]), g[3]) })

	return leftmostLongest(matches)
}

func periodAround(text string, start, end int) string {
	after := strings.Fields(text[end:])
	if len(after) > 0 && slices.Contains(periods, strings.Trim(after[0], ",.!?")) {
		return strings.Trim(after[0], ",.!?")
	}

	before := strings.Fields(text[:start])
	for i := len(before) - 1; i >= 0 && i >= len(before)-3; i-- {
		if word := strings.Trim(before[i], ",.!?"); slices.Contains(periods, word) {
			return word
		}
	}

	return ""
}

func applyPeriod(hour int, period string) int {
	switch period {
	case "chiều", "tối", "pm":
		if hour < hoursPerHalfDay {
			return hour + hoursPerHalfDay
		}
	case "đêm":
		if hour == hoursPerHalfDay {
			return 0
		}

		if hour >= 6 && hour < hoursPerHalfDay {
			return hour + hoursPerHalfDay
		}
	case "trưa":
		if hour < 6 {
			return hour + hoursPerHalfDay
		}
	case "sáng", "am":
		if hour == hoursPerHalfDay {
			return 0
		}
	}

	return hour
}

// Times returns every clock expression in text, in reading order.
func Times(text string) []Match {
	text = Prepare(text)
	matches := []Match{}

	scan := func(re *regexp.Regexp, minutes func(groups []string) int, periodGroup int) {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if !bounded(text, loc[0], loc[1]) {
				continue
			}

			groups := make([]string, len(loc)/2)
			for i := range groups {
				if loc[2*i] >= 0 {
					groups[i] = text[loc[2*i]:loc[2*i+1]]
				}
			}

			hour, minute := atoi(groups[1]), minutes(groups)

			period := ""
			if periodGroup > 0 {
				period = groups[periodGroup]
			}

			if period == "" {
				period = periodAround(text, loc[0], loc[1])
			}

			if hour <= hoursPerHalfDay {
				hour = applyPeriod(hour, period)
			}

			if hour > 23 || minute > 59 {
				continue
			}

			matches = append(matches, Match{
				Phrase: groups[0],
				Value:  fmt.Sprintf("%02d:%02d", hour, minute),
				Kind:   KindClock,
				start:  loc[0],
				end:    loc[1],
			})
		}
	}

	scan(reClock, func(g []string) int { return atoi(g[2]) }, 0)
	scan(reHour, func(g []string) int { return atoi(g[2]) }, 0)
	scan(reGio, func(g []string) int {
		if g[3] != "" {
			return halfHour
		}

		return atoi(g[2])
	}, 0)
	scan(reAmPm, func(g []string) int { return atoi(g[2]) }, 3)

	return leftmostLongest(matches)
}

// Normalize resolves the first date and time in text relative to now.
func Normalize(text string, now time.Time) Result {
	res := Result{Kind: KindFallback, Fallback: true, Date: now.Format(DateLayout)}

	if dates := Dates(text, now); len(dates) > 0 {
		res.Date, res.Kind, res.Fallback = dates[0].Value, dates[0].Kind, false
	}

	if times := Times(text); len(times) > 0 {
		res.Time = times[0].Value
	}

	return res
}

// Mask returns text after Prepare with every date and time expression blanked
// out, so the numbers left are the ones not spent on a date or clock.
func Mask(text string, now time.Time) string {
	masked := []byte(Prepare(text))

	for _, match := range slices.Concat(Dates(text, now), Times(text)) {
		for i := match.start; i < match.end; i++ {
			masked[i] = ' '
		}
	}

	return string(masked)
}

// Annotate appends the resolved dates to text so a model does not have to do calendar arithmetic.
func Annotate(text string, now time.Time) string {
	dates := Dates(text, now)
	if len(dates) == 0 {
		return text
	}

	hints := make([]string, len(dates))
	for i, match := range dates {
		hints[i] = fmt.Sprintf("%q = %s", match.Phrase, match.Value)
	}

	return fmt.Sprintf("%s (quy đổi ngày: %s)", text, strings.Join(hints, "; "))
}

// Values returns the values of matches.
func Values(matches []Match) []string {
	res := make([]string, len(matches))
	for i, match := range matches {
		res[i] = match.Value
	}

	return res
}
