package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Имена зон из экспорта (Atlantic/Faroe и т.п.) должны разрешаться без системной базы
)

// DateLayout - канонический формат календарной даты.
const DateLayout = "2006-01-02"

var (
	// Дата в начале строки: YYYY-MM-DD, YYYY/MM/DD или YYYY.MM.DD, затем необязательное время.
	calendarDateRegex = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})(?:[T ]\d.*)?$`)

	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		DateLayout,
	}
)

// ParseCalendarDate разбирает дату в свободной форме (только дата или дата со временем)
// и возвращает полночь этого календарного дня в UTC.
// Дата берется такой, какой она записана, без пересчета часового пояса.
func ParseCalendarDate(s string) (time.Time, bool) {
	m := calendarDateRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date нормализует 2025-02-30 в 2025-03-02, такие даты отбрасываем
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDates разбирает, дедуплицирует и сортирует список дат по календарному времени.
// Некорректные значения молча отбрасываются.
func NormalizeDates(raw []string) []string {
	seen := make(map[string]time.Time, len(raw))
	for _, s := range raw {
		t, ok := ParseCalendarDate(s)
		if !ok {
			continue
		}
		seen[t.Format(DateLayout)] = t
	}

	times := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	dates := make([]string, len(times))
	for i, t := range times {
		dates[i] = t.Format(DateLayout)
	}
	return dates
}

// ParseTimestamp разбирает метку времени сообщения.
// Основной формат экспорта: "2025-08-24 22:33:59.302 Atlantic/Faroe".
// Если имя зоны неизвестно, время трактуется как UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	parts := strings.Fields(s)
	if len(parts) >= 3 {
		loc, err := time.LoadLocation(parts[2])
		if err != nil {
			loc = time.UTC
		}
		t, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", parts[0]+" "+parts[1], loc)
		if err == nil {
			return t, true
		}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
